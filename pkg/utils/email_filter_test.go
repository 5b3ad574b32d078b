package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromotionalFilter(t *testing.T) {
	f := NewPromotionalFilter()

	tests := []struct {
		name    string
		subject string
		body    string
		want    bool
	}{
		{
			name:    "booking confirmation subject wins over campaign words",
			subject: "【ANA】ご予約の確認 キャンペーン実施中",
			body:    "今すぐクリック 配信停止 購読解除",
			want:    false,
		},
		{
			name:    "two subject hits",
			subject: "ANAマイル キャンペーンのお知らせ",
			body:    "",
			want:    true,
		},
		{
			name:    "one subject hit with two body hits",
			subject: "セール開催",
			body:    "詳しくはこちら\n配信停止はこちら",
			want:    true,
		},
		{
			name:    "three body hits",
			subject: "Monthly",
			body:    "詳しくはこちら 配信停止 購読解除",
			want:    true,
		},
		{
			name:    "two confirmation hits in body",
			subject: "Information",
			body:    "予約番号: 0709 確認番号: 887525617 配信停止 購読解除 詳しくはこちら",
			want:    false,
		},
		{
			name:    "plain transactional mail",
			subject: "Your itinerary",
			body:    "NH006 HND-ITM",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsPromotional(tt.subject, tt.body))
		})
	}
}

func TestCleanHTMLText(t *testing.T) {
	html := `<html><style>p{color:red}</style><body><p>予約番号&nbsp;0709</p><div>座席 12A</div><br/>A &amp; B</body></html>`
	assert.Equal(t, "予約番号 0709\n座席 12A\n\nA & B", CleanHTMLText(html))
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "ana.co.jp", SenderDomain("ANA <info@ANA.co.jp>"))
	assert.Equal(t, "share.timescar.jp", SenderDomain("noreply@share.timescar.jp"))
	assert.Equal(t, "", SenderDomain("not an address"))

	assert.True(t, DomainMatches("mail.carshares.jp", "carshares.jp"))
	assert.True(t, DomainMatches("carshares.jp", "carshares.jp"))
	assert.False(t, DomainMatches("evilcarshares.jp", "carshares.jp"))
}
