package service

import (
	"fmt"
	"math/rand"

	"scenegen-server/internal/models"
)

// Gradients is the background palette for chapters, gradient content and quizzes.
var Gradients = []string{
	gradient("#1e1b4b", "#312e81"),
	gradient("#0f172a", "#1e3a5f"),
	gradient("#14532d", "#166534"),
	gradient("#7c2d12", "#9a3412"),
	gradient("#4c1d95", "#6d28d9"),
	gradient("#1e3a8a", "#1d4ed8"),
	gradient("#134e4a", "#0f766e"),
	gradient("#44403c", "#57534e"),
}

func gradient(from, to string) string {
	return fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 100%%)", from, to)
}

// GradientAt returns the palette entry for a round-robin index.
func GradientAt(i int) string {
	if i < 0 {
		i = -i
	}
	return Gradients[i%len(Gradients)]
}

// Full-background layouts with their preferred media, best first.
var fullBackgroundLayouts = map[models.Layout][]models.BackgroundType{
	models.LayoutBullets:  {models.BackgroundVideo, models.BackgroundImage},
	models.LayoutFullText: {models.BackgroundVideo, models.BackgroundImage},
	models.LayoutCards2:   {models.BackgroundVideo, models.BackgroundImage},
	models.LayoutTimeline: {models.BackgroundVideo, models.BackgroundImage},
	models.LayoutStat:     {models.BackgroundGradient, models.BackgroundImage},
	models.LayoutQuote:    {models.BackgroundGradient, models.BackgroundImage},
}

var fullBackgroundOrder = []models.Layout{
	models.LayoutBullets, models.LayoutFullText, models.LayoutStat,
	models.LayoutQuote, models.LayoutCards2, models.LayoutTimeline,
}

// Partial-image layouts always carry an image.
var partialImageLayouts = []models.Layout{models.LayoutSplit, models.LayoutIconList, models.LayoutCards4}

const partialImageShare = 0.4

type layoutOption struct {
	layout models.Layout
	medium models.BackgroundType
}

// AssignLayouts sets layout, background medium and gradient on every slot.
// Intro and closing get a video headline, chapters a round-robin gradient.
// Content slots draw a full-background or partial-image layout at random;
// consecutive content slots never repeat a layout and neighbouring slots
// never repeat a background medium. The partial-image draw is biased by the
// running share so that about partialImageShare of content slots get one
// even though an image slot blocks the next one.
func AssignLayouts(slots []Slot, rng *rand.Rand) {
	chapter := 0
	for i := range slots {
		switch slots[i].Type {
		case models.SceneTypeIntro, models.SceneTypeClosing:
			slots[i].Layout = models.LayoutHeadline
			slots[i].Background = models.BackgroundVideo
		case models.SceneTypeChapter:
			slots[i].Layout = models.LayoutChapter
			slots[i].Background = models.BackgroundGradient
			slots[i].Gradient = GradientAt(chapter)
			chapter++
		}
	}

	var prevLayout models.Layout
	seen, partials := 0, 0
	for i := range slots {
		if slots[i].Type != models.SceneTypeContent {
			continue
		}
		forbidden := map[models.BackgroundType]bool{}
		if i > 0 {
			forbidden[slots[i-1].Background] = true
		}
		if i+1 < len(slots) && slots[i+1].Type != models.SceneTypeContent {
			forbidden[slots[i+1].Background] = true
		}

		deficit := partialImageShare*float64(seen+1) - float64(partials)
		partialFirst := !forbidden[models.BackgroundImage] && rng.Float64() < partialImageShare+deficit

		opt := pickLayout(rng, prevLayout, forbidden, partialFirst)
		slots[i].Layout = opt.layout
		slots[i].Background = opt.medium
		if opt.medium == models.BackgroundGradient {
			slots[i].Gradient = GradientAt(chapter + i)
		}
		prevLayout = opt.layout
		seen++
		if isPartialImage(opt.layout) {
			partials++
		}
	}
}

func isPartialImage(l models.Layout) bool {
	for _, p := range partialImageLayouts {
		if p == l {
			return true
		}
	}
	return false
}

func pickLayout(rng *rand.Rand, prev models.Layout, forbidden map[models.BackgroundType]bool, partialFirst bool) layoutOption {
	groups := [][]layoutOption{fullBackgroundOptions(rng), partialImageOptions(rng)}
	if partialFirst {
		groups[0], groups[1] = groups[1], groups[0]
	}
	for _, group := range groups {
		for _, opt := range group {
			if opt.layout != prev && !forbidden[opt.medium] {
				return opt
			}
		}
	}
	// недостижимо при палитре выше, но слот не должен остаться пустым
	return layoutOption{layout: models.LayoutSplit, medium: models.BackgroundImage}
}

func fullBackgroundOptions(rng *rand.Rand) []layoutOption {
	order := append([]models.Layout(nil), fullBackgroundOrder...)
	rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })

	opts := make([]layoutOption, 0, len(order)*2)
	for _, l := range order {
		media := append([]models.BackgroundType(nil), fullBackgroundLayouts[l]...)
		// video или image, случайно
		if media[0] == models.BackgroundVideo && rng.Intn(2) == 1 {
			media[0], media[1] = media[1], media[0]
		}
		for _, m := range media {
			opts = append(opts, layoutOption{layout: l, medium: m})
		}
	}
	return opts
}

func partialImageOptions(rng *rand.Rand) []layoutOption {
	order := append([]models.Layout(nil), partialImageLayouts...)
	rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
	opts := make([]layoutOption, 0, len(order))
	for _, l := range order {
		opts = append(opts, layoutOption{layout: l, medium: models.BackgroundImage})
	}
	return opts
}
