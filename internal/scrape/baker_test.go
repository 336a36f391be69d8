package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bakersPageHTML = `
<html><body>
<div class="baker-avatars__group">
  <h3 class="baker-avatars__group__title">Series 12</h3>
  <ul>
    <li class="baker-avatars__list__item"><img alt="Giuseppe" src="/img/bakers/giuseppe.jpg"></li>
    <li class="baker-avatars__list__item"><img alt="Crystelle" src="/img/bakers/crystelle.jpg"></li>
    <li class="baker-avatars__list__item"><img alt="" src="/img/bakers/unknown.jpg"></li>
  </ul>
</div>
<div class="baker-avatars__group">
  <h3 class="baker-avatars__group__title">The very first series</h3>
  <ul>
    <li class="baker-avatars__list__item"><img alt="Edd" src="/img/bakers/edd.jpg"></li>
  </ul>
</div>
</body></html>`

func TestBakerExtractor(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, bakersPageHTML)
	cards := doc.Find(BakerCardSelector)
	require.Equal(t, 2, cards.Length())

	items := NewBakerExtractor(nil).Extract(doc, cards)
	require.Len(t, items, 3, "the avatar without alt text is skipped")

	assert.Equal(t, "Giuseppe", items[0].Name)
	assert.Equal(t, "/img/bakers/giuseppe.jpg", items[0].Img)
	require.NotNil(t, items[0].Season)
	assert.Equal(t, 12, *items[0].Season)

	assert.Equal(t, "Crystelle", items[1].Name)

	assert.Equal(t, "Edd", items[2].Name)
	assert.Nil(t, items[2].Season, "no digits in the group title")
}
