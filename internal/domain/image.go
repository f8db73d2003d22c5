package domain

import (
	"strings"

	"github.com/google/uuid"
)

// MinVariantColors is the number of distinct tagged colors that turns variant mode on.
const MinVariantColors = 2

// TaggedImage is an uploaded product image with an optional color tag.
type TaggedImage struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	FileRef   string `json:"fileRef,omitempty"`
	ColorTag  string `json:"colorTag"`
	IsPrimary bool   `json:"isPrimary"`
}

// AddImage appends an image. The first image of a draft becomes primary.
// A missing or already used ID is replaced with a fresh one.
func (d *Draft) AddImage(img TaggedImage) TaggedImage {
	if img.ID == "" || d.imageIndex(img.ID) >= 0 {
		img.ID = uuid.NewString()
	}
	img.ColorTag = strings.TrimSpace(img.ColorTag)
	img.IsPrimary = len(d.Images) == 0
	d.Images = append(d.Images, img)
	return img
}

// RemoveImage deletes an image by ID, promoting the first remaining image when the primary goes.
func (d *Draft) RemoveImage(id string) {
	for i, img := range d.Images {
		if img.ID != id {
			continue
		}
		d.Images = append(d.Images[:i:i], d.Images[i+1:]...)
		if img.IsPrimary && len(d.Images) > 0 {
			d.Images[0].IsPrimary = true
		}
		return
	}
}

// SetPrimaryImage makes the image with id the only primary image. Unknown IDs are ignored.
func (d *Draft) SetPrimaryImage(id string) {
	if d.imageIndex(id) < 0 {
		return
	}
	for i := range d.Images {
		d.Images[i].IsPrimary = d.Images[i].ID == id
	}
}

// TagImage sets the color tag of one image. Empty color clears the tag.
func (d *Draft) TagImage(id, color string) {
	if i := d.imageIndex(id); i >= 0 {
		d.Images[i].ColorTag = strings.TrimSpace(color)
	}
}

func (d *Draft) imageIndex(id string) int {
	for i, img := range d.Images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// PrimaryImage returns the primary image URL, or "" when there are no images.
func (d *Draft) PrimaryImage() string {
	for _, img := range d.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	return ""
}

// DistinctColors reduces image color tags to distinct colors in first-tagged order.
func DistinctColors(images []TaggedImage) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, img := range images {
		c := strings.TrimSpace(img.ColorTag)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ImagesForColor returns the URLs of images tagged with color.
func ImagesForColor(images []TaggedImage, color string) []string {
	out := []string{}
	for _, img := range images {
		if img.ColorTag == color {
			out = append(out, img.URL)
		}
	}
	return out
}

// normalizeImages enforces exactly one primary image whenever images exist.
func normalizeImages(images []TaggedImage) []TaggedImage {
	if images == nil {
		return []TaggedImage{}
	}
	primary := -1
	for i := range images {
		images[i].ColorTag = strings.TrimSpace(images[i].ColorTag)
		if images[i].ID == "" {
			images[i].ID = uuid.NewString()
		}
		if images[i].IsPrimary {
			if primary >= 0 {
				images[i].IsPrimary = false
				continue
			}
			primary = i
		}
	}
	if primary < 0 && len(images) > 0 {
		images[0].IsPrimary = true
	}
	return images
}
