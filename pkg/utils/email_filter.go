package utils

import (
	"regexp"
)

// FilterResult explains a promotional decision
type FilterResult struct {
	Promotional    bool
	Confirmation   bool
	SubjectMatches int
	BodyMatches    int
}

// PromotionalFilter flags campaign and newsletter mail before it reaches
// the extractor.
type PromotionalFilter struct {
	subjectPatterns      []*regexp.Regexp
	bodyPatterns         []*regexp.Regexp
	confirmationPatterns []*regexp.Regexp
}

// NewPromotionalFilter creates a filter with the Japanese airline and
// car-share vocabularies.
func NewPromotionalFilter() *PromotionalFilter {
	return &PromotionalFilter{
		subjectPatterns: compileAll(
			// campaigns
			`キャンペーン`, `プレゼント`, `抽選`, `割引`, `セール`, `特典`, `お得`, `限定`, `応募`,
			`マイル.*キャンペーン`, `ポイント.*キャンペーン`,
			// newsletters
			`メルマガ`, `ニュースレター`, `お知らせ`, `新着`, `情報配信`,
			// carriers
			`(?i)ANA.*キャンペーン`, `(?i)ANA.*プレゼント`, `(?i)ANA.*マイル`, `ANAからのお知らせ`,
			`(?i)JAL.*キャンペーン`, `(?i)JAL.*プレゼント`, `(?i)JAL.*マイル`, `JALからのお知らせ`,
			// car-share
			`タイムズカー.*キャンペーン`, `カレコ.*キャンペーン`, `三井のカーシェアーズ.*キャンペーン`, `カーシェア.*お得`,
			// urgency
			`今すぐ`, `急いで`, `見逃し`, `最後のチャンス`, `期間限定`, `無料`, `プレミアム`,
		),
		bodyPatterns: compileAll(
			`クリックして.*キャンペーン`, `詳しくはこちら.*キャンペーン`, `応募.*こちら`,
			`配信停止`, `メール配信.*停止`, `購読解除`,
			`キャンペーン.*情報`, `詳しくはこちら`, `今すぐ.*クリック`,
			`(キャンペーン|プレゼント|抽選).*?(キャンペーン|プレゼント|抽選)`,
		),
		confirmationPatterns: compileAll(
			`予約.*受付.*ました`, `ご予約.*確認`, `搭乗券`, `フライト.*確認`, `航空券`,
			`確認番号`, `予約番号`, `チェックイン`,
			`利用.*開始`, `利用.*終了`, `予約.*開始`, `返却.*完了`, `キャンセル.*受付`, `変更.*受付`,
		),
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// IsBookingConfirmation reports whether the mail carries booking
// confirmation wording: one hit in the subject or two in the body.
func (f *PromotionalFilter) IsBookingConfirmation(subject, body string) bool {
	if countMatches(f.confirmationPatterns, subject) > 0 {
		return true
	}
	return countMatches(f.confirmationPatterns, body) >= 2
}

// Evaluate scores subject and body against the promotional vocabularies.
func (f *PromotionalFilter) Evaluate(subject, body string) FilterResult {
	if f.IsBookingConfirmation(subject, body) {
		return FilterResult{Confirmation: true}
	}

	res := FilterResult{
		SubjectMatches: countMatches(f.subjectPatterns, subject),
		BodyMatches:    countMatches(f.bodyPatterns, body),
	}

	switch {
	case res.SubjectMatches >= 2:
		res.Promotional = true
	case res.SubjectMatches >= 1 && res.BodyMatches >= 2:
		res.Promotional = true
	case res.BodyMatches >= 3:
		res.Promotional = true
	}
	return res
}

// IsPromotional is a shorthand for Evaluate(...).Promotional
func (f *PromotionalFilter) IsPromotional(subject, body string) bool {
	return f.Evaluate(subject, body).Promotional
}
