// Package generator builds generation webhook payloads and talks to the
// external image-generation service.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"coverly/internal/entity"
)

// Credit costs per submission. A reference image on a blog request adds the
// surcharge; infographics ignore reference images entirely.
const (
	CostBlog             int64 = 5
	CostInfographic      int64 = 10
	CostReferenceImage   int64 = 5
	DefaultImageSizeAuto       = "auto"
)

// Form holds the sanitized fields of one generation submission.
type Form struct {
	ImageType string
	Title     string
	Content   string
	Style     string
	Colour    string
	ImageURL  string
	ImageSize string
	UseBrand  bool
}

// BrandProfile carries the requesting user's branding fields. A nil profile
// means no signed-in user or branding switched off.
type BrandProfile struct {
	Name       string
	LogoURL    string
	Website    string
	Guidelines string
}

// Request is the JSON payload sent to the generation webhook.
type Request struct {
	ImageType       string `json:"image_type"`
	ImageDetail     string `json:"image_detail"`
	ImageURL        string `json:"image_url,omitempty"`
	ImageSize       string `json:"image_size,omitempty"`
	BrandLogo       string `json:"brand_logo,omitempty"`
	BrandWebsite    string `json:"brand_website,omitempty"`
	BrandGuidelines string `json:"brand_guidelines,omitempty"`
}

// ErrInvalidForm marks validation failures so callers can map them to a
// client error.
var ErrInvalidForm = errors.New("invalid generation form")

// ValidateForm checks the required fields for the given image type.
func ValidateForm(form Form) error {
	switch form.ImageType {
	case entity.ImageTypeBlog:
		if strings.TrimSpace(form.Title) == "" {
			return fmt.Errorf("%w: title is required for blog images", ErrInvalidForm)
		}
		if strings.TrimSpace(form.Content) == "" {
			return fmt.Errorf("%w: content is required for blog images", ErrInvalidForm)
		}
	case entity.ImageTypeInfographic:
		if strings.TrimSpace(form.Content) == "" {
			return fmt.Errorf("%w: content is required for infographics", ErrInvalidForm)
		}
	default:
		return fmt.Errorf("%w: unknown image type %q", ErrInvalidForm, form.ImageType)
	}
	return nil
}

// CreditCost returns the credit cost of a submission.
func CreditCost(form Form) int64 {
	switch form.ImageType {
	case entity.ImageTypeInfographic:
		return CostInfographic
	default:
		cost := CostBlog
		if strings.TrimSpace(form.ImageURL) != "" {
			cost += CostReferenceImage
		}
		return cost
	}
}

// BuildRequest assembles the webhook payload from a form and the optional
// brand profile. Pure function of its inputs.
func BuildRequest(form Form, brand *BrandProfile) Request {
	useBrand := form.UseBrand && brand != nil
	hasReference := strings.TrimSpace(form.ImageURL) != ""

	req := Request{
		ImageType:   imageTypeLabel(form.ImageType, hasReference, useBrand),
		ImageDetail: buildImageDetail(form),
	}

	if hasReference {
		req.ImageURL = strings.TrimSpace(form.ImageURL)
	}
	if size := strings.TrimSpace(form.ImageSize); size != "" && size != DefaultImageSizeAuto {
		req.ImageSize = size
	}
	if useBrand {
		req.BrandLogo = brand.LogoURL
		req.BrandWebsite = brand.Website
		req.BrandGuidelines = brand.Guidelines
	}

	return req
}

// imageTypeLabel is the canonical decision table for the webhook's
// image_type string. Infographics do not vary with reference images.
func imageTypeLabel(imageType string, hasReference, useBrand bool) string {
	if imageType == entity.ImageTypeInfographic {
		if useBrand {
			return "Infographic with branding"
		}
		return "Infographic"
	}

	label := "Featured Image"
	if hasReference {
		label += " with product image"
	}
	if useBrand {
		label += " with branding"
	}
	return label
}

func buildImageDetail(form Form) string {
	var detail string
	if form.ImageType == entity.ImageTypeInfographic {
		detail = form.Content
	} else {
		detail = fmt.Sprintf("Blog post title: '%s', Content: %s", form.Title, form.Content)
	}

	if style := strings.TrimSpace(form.Style); style != "" {
		detail += ", Style: " + style
	}
	if colour := strings.TrimSpace(form.Colour); colour != "" {
		detail += ", Colour: " + colour
	}
	return detail
}
