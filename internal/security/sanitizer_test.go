package security

import "testing"

// TestSanitize_StripsHTMLTags はHTMLタグが全て除去されることを検証する。
func TestSanitize_StripsHTMLTags(t *testing.T) {
	s := NewDescriptionSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "script tag",
			input: `手織りマフラー<script>alert("xss")</script>です`,
			want:  "手織りマフラーです",
		},
		{
			name:  "img onerror",
			input: `<img src=x onerror=alert(1)>銀細工のリング`,
			want:  "銀細工のリング",
		},
		{
			name:  "basic formatting tags",
			input: "<b>一点物</b>の<i>陶器</i>",
			want:  "一点物の陶器",
		},
		{
			name:  "anchor tag keeps text only",
			input: `詳細は<a href="https://example.com">こちら</a>`,
			want:  "詳細はこちら",
		},
		{
			name:  "plain text unchanged",
			input: "天然素材のみを使用した一点物です。",
			want:  "天然素材のみを使用した一点物です。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_EmptyInput は空文字列入力に空文字列が返ることを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	s := NewDescriptionSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

// TestSanitize_TrimsWhitespace は前後の空白が除去されることを検証する。
func TestSanitize_TrimsWhitespace(t *testing.T) {
	s := NewDescriptionSanitizer()

	got := s.Sanitize("  <p>ガラス細工</p>  ")
	if got != "ガラス細工" {
		t.Errorf("Sanitize = %q, want %q", got, "ガラス細工")
	}
}

// TestSanitize_Idempotent はサニタイズ済みテキストの再サニタイズで結果が変わらないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewDescriptionSanitizer()

	first := s.Sanitize(`<b>手作り</b>の<script>x</script>革小物`)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("second pass = %q, want %q", second, first)
	}
}
