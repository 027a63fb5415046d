// Package pipeline turns the installed library into a fetch run.
//
// Collect flattens manifest app ids, Dedup sorts and collapses them, and
// Shuffle permutes the set so each run visits ids in a fresh order. Run
// drains a lazy id sequence through a Resolver one id at a time. A failing
// id is logged and recorded in the Report; the run continues with the next.
package pipeline
