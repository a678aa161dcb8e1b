package storage

import "testing"

func TestBannerKey(t *testing.T) {
	if got := BannerKey("42", "banner.png"); got != "banners/42/banner.png" {
		t.Fatalf("BannerKey = %q", got)
	}
	// Path components in the filename must not escape the prefix.
	if got := BannerKey("42", "../../etc/passwd"); got != "banners/42/passwd" {
		t.Fatalf("BannerKey with traversal = %q", got)
	}
}

func TestObjectKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "banner url",
			url:  "https://qr-event-banners.s3.us-east-1.amazonaws.com/banners/7/banner.png",
			want: "banners/7/banner.png",
		},
		{
			name: "outside banner prefix",
			url:  "https://qr-event-banners.s3.us-east-1.amazonaws.com/other/thing.png",
			want: "",
		},
		{
			name: "empty url",
			url:  "",
			want: "",
		},
		{
			name: "not a url",
			url:  "://nope",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKeyFromURL(tt.url); got != tt.want {
				t.Fatalf("ObjectKeyFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestValidateBannerFileType(t *testing.T) {
	if !ValidateBannerFileType("image/png", "banner.png") {
		t.Fatal("png rejected")
	}
	if !ValidateBannerFileType("", "banner.jpeg") {
		t.Fatal("extension fallback rejected")
	}
	if ValidateBannerFileType("application/pdf", "banner.pdf") {
		t.Fatal("pdf accepted")
	}
}
