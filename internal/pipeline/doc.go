// Package pipeline runs one scan end to end: enumerate JPEGs, load and gate
// each candidate, cluster near-duplicates, score the retained survivors, and
// select the print shortlist. Faults on individual candidates never abort a
// run; they become drop verdicts or shortlist exclusions reported alongside
// the rest.
package pipeline
