package relevance

import "github.com/hashicorp/go-bexpr"

// PostView is the flattened set of fields a listing-view filter can
// reference, evaluated with a small boolean expression language rather
// than a bespoke set of boolean flags — grounded on teacher's
// agent.Registry.Query, which filters agent records by
// category/tool/region/tier before scoring (see DESIGN.md, C8).
type PostView struct {
	CellID          string `bexpr:"cell_id"`
	AuthorVerified  bool   `bexpr:"author_verified"`
	Moderated       bool   `bexpr:"moderated"`
	UpvoteCount     int    `bexpr:"upvote_count"`
	CommentCount    int    `bexpr:"comment_count"`
	AgeDays         int    `bexpr:"age_days"`
}

// Filter compiles a go-bexpr expression once and applies it to any
// number of PostViews.
type Filter struct {
	evaluator *bexpr.Evaluator
}

// NewFilter compiles expression (e.g. `moderated == false and cell_id ==
// "c1"`) into a reusable Filter.
func NewFilter(expression string) (*Filter, error) {
	if expression == "" {
		return &Filter{}, nil
	}
	ev, err := bexpr.CreateEvaluator(expression)
	if err != nil {
		return nil, err
	}
	return &Filter{evaluator: ev}, nil
}

// Match reports whether view satisfies the filter. An empty filter
// matches everything.
func (f *Filter) Match(view PostView) (bool, error) {
	if f == nil || f.evaluator == nil {
		return true, nil
	}
	return f.evaluator.Evaluate(view)
}
