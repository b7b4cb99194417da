package search

import (
	"github.com/poiesic/patternsearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(req Request)
	AfterQueryNormalization(normalized string)
	AfterFilter(ids []core.PatternID)
	FilterDegraded(err error)
	AfterRowExpansion(rows []core.RowID)
	AfterScoring(rows []ScoredRow)
	Finish(results []core.Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Request)                  {}
func (n *noopMonitor) AfterQueryNormalization(_ string) {}
func (n *noopMonitor) AfterFilter(_ []core.PatternID)   {}
func (n *noopMonitor) FilterDegraded(_ error)           {}
func (n *noopMonitor) AfterRowExpansion(_ []core.RowID) {}
func (n *noopMonitor) AfterScoring(_ []ScoredRow)       {}
func (n *noopMonitor) Finish(_ []core.Result)           {}
