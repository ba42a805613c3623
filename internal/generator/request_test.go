package generator

import (
	"testing"

	"coverly/internal/entity"
)

func TestBuildRequestBlog(t *testing.T) {
	form := Form{
		ImageType: entity.ImageTypeBlog,
		Title:     "Hello World",
		Content:   "AI content",
		Style:     "modern",
		Colour:    "blue",
		ImageSize: "auto",
	}

	req := BuildRequest(form, nil)

	if req.ImageType != "Featured Image" {
		t.Fatalf("unexpected image type: %q", req.ImageType)
	}
	want := "Blog post title: 'Hello World', Content: AI content, Style: modern, Colour: blue"
	if req.ImageDetail != want {
		t.Fatalf("unexpected image detail:\n got: %q\nwant: %q", req.ImageDetail, want)
	}
	if req.ImageSize != "" {
		t.Fatalf("auto size should be omitted, got %q", req.ImageSize)
	}
	if req.ImageURL != "" {
		t.Fatalf("image url should be empty, got %q", req.ImageURL)
	}
}

func TestBuildRequestBlogWithReferenceAndBranding(t *testing.T) {
	form := Form{
		ImageType: entity.ImageTypeBlog,
		Title:     "Launch",
		Content:   "Product launch recap",
		ImageURL:  "https://cdn.example.com/product.png",
		ImageSize: "1536x1024",
		UseBrand:  true,
	}
	brand := &BrandProfile{
		Name:       "Acme",
		LogoURL:    "https://cdn.example.com/logo.png",
		Website:    "https://acme.example.com",
		Guidelines: "Bold sans-serif headings",
	}

	req := BuildRequest(form, brand)

	if req.ImageType != "Featured Image with product image with branding" {
		t.Fatalf("unexpected image type: %q", req.ImageType)
	}
	if req.ImageURL != form.ImageURL {
		t.Fatalf("unexpected image url: %q", req.ImageURL)
	}
	if req.ImageSize != "1536x1024" {
		t.Fatalf("unexpected image size: %q", req.ImageSize)
	}
	if req.BrandLogo != brand.LogoURL || req.BrandWebsite != brand.Website || req.BrandGuidelines != brand.Guidelines {
		t.Fatalf("branding fields not forwarded: %+v", req)
	}
}

func TestBuildRequestInfographic(t *testing.T) {
	form := Form{
		ImageType: entity.ImageTypeInfographic,
		Content:   "Five steps to compost at home",
		Style:     "flat",
		ImageURL:  "https://cdn.example.com/ignored.png",
	}

	req := BuildRequest(form, nil)

	if req.ImageType != "Infographic" {
		t.Fatalf("unexpected image type: %q", req.ImageType)
	}
	want := "Five steps to compost at home, Style: flat"
	if req.ImageDetail != want {
		t.Fatalf("unexpected image detail: %q", req.ImageDetail)
	}
}

func TestBuildRequestInfographicWithBranding(t *testing.T) {
	form := Form{
		ImageType: entity.ImageTypeInfographic,
		Content:   "Quarterly revenue breakdown",
		UseBrand:  true,
	}
	brand := &BrandProfile{LogoURL: "https://cdn.example.com/logo.png"}

	req := BuildRequest(form, brand)
	if req.ImageType != "Infographic with branding" {
		t.Fatalf("unexpected image type: %q", req.ImageType)
	}
}

func TestBuildRequestUseBrandWithoutProfile(t *testing.T) {
	form := Form{
		ImageType: entity.ImageTypeBlog,
		Title:     "T",
		Content:   "C",
		UseBrand:  true,
	}

	req := BuildRequest(form, nil)
	if req.ImageType != "Featured Image" {
		t.Fatalf("branding without profile should be ignored, got %q", req.ImageType)
	}
	if req.BrandLogo != "" {
		t.Fatalf("brand logo should be empty, got %q", req.BrandLogo)
	}
}

func TestCreditCost(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want int64
	}{
		{"blog", Form{ImageType: entity.ImageTypeBlog}, 5},
		{"blog with reference", Form{ImageType: entity.ImageTypeBlog, ImageURL: "https://x/y.png"}, 10},
		{"infographic", Form{ImageType: entity.ImageTypeInfographic}, 10},
		{"infographic ignores reference", Form{ImageType: entity.ImageTypeInfographic, ImageURL: "https://x/y.png"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CreditCost(tt.form); got != tt.want {
				t.Fatalf("cost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateForm(t *testing.T) {
	if err := ValidateForm(Form{ImageType: entity.ImageTypeBlog, Content: "c"}); err == nil {
		t.Fatal("expected error for blog without title")
	}
	if err := ValidateForm(Form{ImageType: entity.ImageTypeInfographic}); err == nil {
		t.Fatal("expected error for infographic without content")
	}
	if err := ValidateForm(Form{ImageType: "poster", Title: "t", Content: "c"}); err == nil {
		t.Fatal("expected error for unknown image type")
	}
	if err := ValidateForm(Form{ImageType: entity.ImageTypeBlog, Title: "t", Content: "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
