package meeting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLinkUsesCourseCode(t *testing.T) {
	p := NewRoomProvider("https://meet.example.com/")

	link := p.GenerateLink("CS 101", "Intro")

	assert.True(t, strings.HasPrefix(link, "https://meet.example.com/cs-101-"), link)
}

func TestGenerateLinkIsUnique(t *testing.T) {
	p := NewRoomProvider("https://meet.example.com")

	first := p.GenerateLink("CS101", "Intro")
	second := p.GenerateLink("CS101", "Intro")

	require.NotEqual(t, first, second)
}

func TestGenerateLinkEmptyCodeFallsBack(t *testing.T) {
	p := NewRoomProvider("https://meet.example.com")

	link := p.GenerateLink("!!!", "Intro")

	assert.True(t, strings.HasPrefix(link, "https://meet.example.com/class-"), link)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "cs-101", slugify("CS 101"))
	assert.Equal(t, "math201", slugify("MATH201"))
	assert.Equal(t, "a-b", slugify("--A_B--"))
	assert.Equal(t, "", slugify("!@#"))
}
