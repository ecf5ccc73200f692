// Package simulate produces synthetic sailing data with a known true wind:
// tacking tracks, whole fleets, windward-leeward courses and their CSV, GPX
// and YAML encodings. Run drives a live service with a generated fleet and
// checks the estimated wind against the truth.
package simulate
