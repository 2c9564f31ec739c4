/*
Package transit turns scanned cards into transit data: balance, trip history,
season passes and top-ups.

# Operators

Each supported transit system implements Operator. A Resolver holds operators
in priority order and dispatches a card to the first one whose Matches
reports true.

	resolver := transit.NewResolver(nil, hsl.New())

	id := resolver.Identify(c) // cheap, never fails
	data, err := resolver.Decode(c)
	switch {
	case errors.Is(err, transit.ErrUnknownCard):
	    // not a transit card this build understands
	case err != nil:
	    // recognised, but the payload could not be decoded
	}

# Values

The package produces typed values only. Amounts are integer minor currency
units, timestamps are Unix seconds. Formatting them for display belongs to the
caller.
*/
package transit
