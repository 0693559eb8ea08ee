package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ground-truth categories used by the benchmark dataset.
const (
	CategoryHotDog    = "hot_dog"
	CategoryNotHotDog = "not_hot_dog"
)

// evalSplit is the dataset split evaluated by benchmark runs.
const evalSplit = "test"

// Image identifies one labeled image on disk.
type Image struct {
	Split    string `json:"split"`
	Category string `json:"category"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Key returns the split/category/filename composite identifying the image
// within a run log.
func (img Image) Key() string {
	return img.Split + "/" + img.Category + "/" + img.Filename
}

// Status summarizes what is present in the data directory.
type Status struct {
	Downloaded     bool     `json:"downloaded"`
	HotDogCount    int      `json:"hot_dog_count"`
	NotHotDogCount int      `json:"not_hot_dog_count"`
	Total          int      `json:"total"`
	Splits         []string `json:"splits"`
}

// Source reads labeled images from a data directory laid out as
// <root>/<split>/<category>/<filename>.
type Source struct {
	Root string
}

// ListImages returns the evaluation images in their frozen processing order:
// hot dog and not-hot-dog images interleaved, each category sorted by
// filename and capped at sampleSize when sampleSize > 0.
func (s Source) ListImages(sampleSize int) ([]Image, error) {
	hot, err := s.listCategory(evalSplit, CategoryHotDog)
	if err != nil {
		return nil, err
	}
	notHot, err := s.listCategory(evalSplit, CategoryNotHotDog)
	if err != nil {
		return nil, err
	}
	if sampleSize > 0 {
		if len(hot) > sampleSize {
			hot = hot[:sampleSize]
		}
		if len(notHot) > sampleSize {
			notHot = notHot[:sampleSize]
		}
	}
	return interleave(hot, notHot), nil
}

// Status counts images per category across known splits.
func (s Source) Status() Status {
	var status Status
	for _, split := range []string{"train", "test"} {
		splitDir := filepath.Join(s.Root, split)
		if _, err := os.Stat(splitDir); err != nil {
			continue
		}
		status.Splits = append(status.Splits, split)
		for _, category := range []string{CategoryHotDog, CategoryNotHotDog} {
			images, err := s.listCategory(split, category)
			if err != nil {
				continue
			}
			if category == CategoryHotDog {
				status.HotDogCount += len(images)
			} else {
				status.NotHotDogCount += len(images)
			}
		}
	}
	status.Total = status.HotDogCount + status.NotHotDogCount
	status.Downloaded = status.Total > 0
	return status
}

// ImagePath returns the on-disk path for an image, or false when it does not
// exist as a regular file.
func (s Source) ImagePath(split, category, filename string) (string, bool) {
	path := filepath.Join(s.Root, split, category, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// listCategory lists one split/category directory sorted by filename.
func (s Source) listCategory(split, category string) ([]Image, error) {
	dir := filepath.Join(s.Root, split, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	images := make([]Image, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		images = append(images, Image{
			Split:    split,
			Category: category,
			Filename: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Filename < images[j].Filename })
	return images, nil
}

// interleave alternates the two categories so partial runs stay balanced,
// appending the remainder of the longer slice.
func interleave(hot, notHot []Image) []Image {
	out := make([]Image, 0, len(hot)+len(notHot))
	n := len(hot)
	if len(notHot) < n {
		n = len(notHot)
	}
	for i := 0; i < n; i++ {
		out = append(out, hot[i], notHot[i])
	}
	out = append(out, hot[n:]...)
	out = append(out, notHot[n:]...)
	return out
}

// isImageFile reports whether a filename has a recognized image extension.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		return true
	default:
		return false
	}
}
