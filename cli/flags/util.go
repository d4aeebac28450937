package flags

import (
	"strings"

	"github.com/urfave/cli"
)

func eachName(longName string, fn func(string)) {
	parts := strings.Split(longName, ",")
	for _, name := range parts {
		name = strings.Trim(name, " ")
		fn(name)
	}
}

// MarkRequired returns a copy of flagSet with string and address flags
// having any of the given names marked as required. A name matches either
// the full flag name ("asset, a") or any of its parts.
func MarkRequired(flagSet []cli.Flag, names ...string) []cli.Flag {
	res := make([]cli.Flag, 0, len(flagSet))
	for _, fl := range flagSet {
		if hasName(fl.GetName(), names) {
			switch f := fl.(type) {
			case cli.StringFlag:
				f.Required = true
				fl = f
			case AddressFlag:
				f.Required = true
				fl = f
			}
		}
		res = append(res, fl)
	}
	return res
}

func hasName(longName string, names []string) bool {
	var found bool
	eachName(longName, func(name string) {
		for _, n := range names {
			if n == name || n == longName {
				found = true
			}
		}
	})
	return found
}
