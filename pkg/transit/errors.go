package transit

import (
	"errors"
	"fmt"
)

// ErrUnknownCard is returned by Resolver.Decode when no operator recognises
// the card. It is a terminal state, not a decoding failure: callers should
// show "card not recognised" rather than an error.
var ErrUnknownCard = errors.New("unknown card")

// FeatureError reports which feature group of an operator's format failed to
// decode. Any FeatureError aborts the whole decode.
type FeatureError struct {
	Operator string
	Feature  string
	Err      error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s: error parsing %s: %v", e.Operator, e.Feature, e.Err)
}

func (e *FeatureError) Unwrap() error { return e.Err }

// WrapFeature returns err wrapped in a FeatureError, or nil when err is nil.
func WrapFeature(operator, feature string, err error) error {
	if err == nil {
		return nil
	}
	return &FeatureError{Operator: operator, Feature: feature, Err: err}
}
