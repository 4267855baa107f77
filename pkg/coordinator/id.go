package coordinator

import (
	"regexp"
	"strings"
)

// sourceNamespace is the external-source namespace statistics series are
// filed under.
const sourceNamespace = "leneda"

var idSanitize = regexp.MustCompile(`[^a-z0-9]`)

// StatisticID builds the stable storage key for one metering point/OBIS
// pair: both inputs lowercased, every character outside [a-z0-9] replaced
// with an underscore, joined as "leneda:<meteringPoint>_<obisCode>".
//
// Pathological inputs differing only in already-sanitized characters can
// collide (e.g. "a-b" and "a_b"); real metering point identifiers and OBIS
// codes don't.
func StatisticID(meteringPoint, obisCode string) string {
	mp := idSanitize.ReplaceAllString(strings.ToLower(meteringPoint), "_")
	code := idSanitize.ReplaceAllString(strings.ToLower(obisCode), "_")
	return sourceNamespace + ":" + mp + "_" + code
}
