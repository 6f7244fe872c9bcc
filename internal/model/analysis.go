package model

import "time"

// Scores holds the per-metric ratings the vision model assigns to a
// screenshot. Every populated score lies in the range [1, 10]. A nil pointer
// means the model omitted the metric (mobile_responsiveness is null for
// desktop captures); omitted metrics are excluded from weighted scoring
// rather than treated as zero.
type Scores struct {
	// Overall is the model's own holistic rating. It is used as a fallback
	// only when none of the weighted metrics are present.
	Overall *float64 `json:"overall,omitempty"`
	// Usability rates how easily a first-time visitor can accomplish the
	// page's purpose.
	Usability *float64 `json:"usability,omitempty"`
	// VisualHierarchy rates whether size, color, and position guide the eye
	// to the most important elements first.
	VisualHierarchy *float64 `json:"visual_hierarchy,omitempty"`
	// Accessibility rates contrast, touch-target size, and labeling.
	Accessibility *float64 `json:"accessibility,omitempty"`
	// BrandConsistency rates coherence of color, type, and tone.
	BrandConsistency *float64 `json:"brand_consistency,omitempty"`
	// RealEstateEfficiency rates how well above-the-fold space is spent.
	RealEstateEfficiency *float64 `json:"real_estate_efficiency,omitempty"`
	// MobileResponsiveness rates layout behavior at the mobile viewport.
	MobileResponsiveness *float64 `json:"mobile_responsiveness,omitempty"`
}

// FirstImpression captures the 3-second test portion of the rubric.
type FirstImpression struct {
	// UnderstoodIn3Seconds is what a visitor grasps immediately.
	UnderstoodIn3Seconds string `json:"understood_in_3_seconds,omitempty"`
	// PurposeClear reports whether the page's purpose is immediately clear.
	PurposeClear bool `json:"purpose_clear"`
	// PurposeClarityReason explains why the purpose is clear or unclear.
	PurposeClarityReason string `json:"purpose_clarity_reason,omitempty"`
	// MostProminentElement names the element that draws the eye first.
	MostProminentElement string `json:"most_prominent_element,omitempty"`
}

// AboveFoldBreakdown audits how the visible-without-scrolling area is spent.
type AboveFoldBreakdown struct {
	NavigationPercent     float64 `json:"navigation_percent"`
	PrimaryContentPercent float64 `json:"primary_content_percent"`
	WhitespacePercent     float64 `json:"whitespace_percent"`
	OtherPercent          float64 `json:"other_percent"`
	// VisibleCTA is the call-to-action text visible without scrolling,
	// empty when there is none.
	VisibleCTA string `json:"visible_cta,omitempty"`
	// CanActWithoutScroll reports whether a user can take meaningful
	// action without scrolling.
	CanActWithoutScroll bool `json:"can_act_without_scroll"`
}

// ObjectiveAssessment is the model's verdict on one configured page
// objective.
type ObjectiveAssessment struct {
	// Objective is the objective text as given in the prompt.
	Objective string `json:"objective"`
	// Status is the pass/partial/fail verdict.
	Status ObjectiveStatus `json:"status"`
	// Notes carry the assessment details.
	Notes string `json:"notes,omitempty"`
}

// Issue is a single problem the vision model found.
type Issue struct {
	// Severity is critical, high, medium, or low. The model chooses the
	// value; we preserve it verbatim.
	Severity string `json:"severity,omitempty"`
	// Element names the specific UI element.
	Element string `json:"element,omitempty"`
	// Location places the element: above_fold, below_fold, header, footer.
	Location string `json:"location,omitempty"`
	// Problem says what is wrong.
	Problem string `json:"problem"`
	// Impact says how it affects users.
	Impact string `json:"impact,omitempty"`
	// Fix is the specific recommendation.
	Fix string `json:"fix,omitempty"`
}

// Recommendation is one entry of the model's prioritized fix list.
type Recommendation struct {
	// Priority orders recommendations, 1 being most important.
	Priority int `json:"priority"`
	// Action is the fix to make.
	Action string `json:"action"`
	// ExpectedImpact describes how the fix improves the experience.
	ExpectedImpact string `json:"expected_impact,omitempty"`
}

// Analysis is the structured UI/UX verdict parsed from the vision model's
// JSON response. Fields mirror the output schema the prompt demands; any the
// model omits stay at their zero value.
type Analysis struct {
	FirstImpression         *FirstImpression      `json:"first_impression,omitempty"`
	AboveFoldBreakdown      *AboveFoldBreakdown   `json:"above_fold_breakdown,omitempty"`
	ObjectivesAssessment    []ObjectiveAssessment `json:"objectives_assessment,omitempty"`
	Scores                  *Scores               `json:"scores,omitempty"`
	Issues                  []Issue               `json:"issues,omitempty"`
	PositiveFindings        []string              `json:"positive_findings,omitempty"`
	PriorityRecommendations []Recommendation      `json:"priority_recommendations,omitempty"`
}

// AnalysisResult is the outcome of one vision analysis of a screenshot.
// Exactly one of Analysis or the error fields is meaningful, selected by
// Success.
type AnalysisResult struct {
	// Success indicates whether a structured analysis was obtained.
	Success bool `json:"success"`
	// Analysis holds the parsed verdict when Success is true.
	Analysis *Analysis `json:"analysis,omitempty"`
	// Model is the vision model identifier that produced the analysis.
	Model string `json:"model,omitempty"`
	// Timestamp records when the analysis completed.
	Timestamp time.Time `json:"timestamp"`
	// ScreenshotDigest is the SHA3-256 hex digest of the analyzed image,
	// used to correlate repeated captures of the same render.
	ScreenshotDigest string `json:"screenshot_digest,omitempty"`
	// Error is a short failure category when Success is false.
	Error string `json:"error,omitempty"`
	// Details carries a truncated upstream error body, if any.
	Details string `json:"details,omitempty"`
	// RawResponse carries the unparseable model output, truncated, when
	// JSON parsing failed.
	RawResponse string `json:"raw_response,omitempty"`
}

// ClampScore forces a score into the valid [1, 10] range. Models
// occasionally return 0 or values above 10 despite the rubric; clamping on
// parse keeps the weighted-score bounds guarantee intact.
func ClampScore(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// Clamp normalizes every present score into [1, 10] in place.
func (s *Scores) Clamp() {
	if s == nil {
		return
	}
	for _, p := range []*float64{
		s.Overall, s.Usability, s.VisualHierarchy, s.Accessibility,
		s.BrandConsistency, s.RealEstateEfficiency, s.MobileResponsiveness,
	} {
		if p != nil {
			*p = ClampScore(*p)
		}
	}
}
