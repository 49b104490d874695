package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themedmark/markup"
	"themedmark/model"
)

var (
	important = model.ColorScheme{Name: "Important", LightColor: "#ff0000", DarkColor: "#aa0000"}
	calm      = model.ColorScheme{Name: "Calm Blue", LightColor: "#aaccff", DarkColor: "#112244"}
)

func TestRewrite_ModeFlip(t *testing.T) {
	in := `Some <mark class="important" style="background: #ff0000">note</mark> here.`
	out, warnings := Rewrite(in, []model.ColorScheme{important}, model.Dark)
	assert.Equal(t, `Some <mark class="important" style="background: #aa0000">note</mark> here.`, out)
	assert.Empty(t, warnings)
}

func TestRewrite_SameModeIsNoop(t *testing.T) {
	for _, m := range []model.Mode{model.Light, model.Dark} {
		in := markup.Encode(important, m, "text")
		out, warnings := Rewrite(in, []model.ColorScheme{important}, m)
		assert.Equal(t, in, out)
		assert.Empty(t, warnings)
	}
}

func TestRewrite_EncodedLightToDark(t *testing.T) {
	in := markup.Encode(calm, model.Light, "content")
	out, _ := Rewrite(in, []model.ColorScheme{calm}, model.Dark)
	assert.Equal(t, markup.Encode(calm, model.Dark, "content"), out)
	assert.Equal(t, strings.Replace(in, calm.LightColor, calm.DarkColor, 1), out)
}

func TestRewrite_UnknownToken(t *testing.T) {
	in := `<mark class="unknown" style="background: #123456">x</mark>`
	out, warnings := Rewrite(in, []model.ColorScheme{important}, model.Dark)
	assert.Equal(t, in, out)
	require.Len(t, warnings, 1)
	assert.Equal(t, "unknown", warnings[0].Token)
	assert.Equal(t, "#123456", warnings[0].Color)
	assert.Equal(t, model.ReasonUnresolvedScheme, warnings[0].Reason)
	assert.Equal(t, `<mark class="unknown" style="background: #123456">`, warnings[0].Raw)
}

func TestRewrite_NoSchemes(t *testing.T) {
	for _, in := range []string{
		"",
		"plain text",
		`<mark class="x" style="background: #000">y</mark>`,
		`<mark class="x" style="background: #000">y</mark>`[:20],
		"<mark>bare</mark>",
	} {
		out, warnings := Rewrite(in, nil, model.Light)
		assert.Equal(t, in, out)
		assert.Empty(t, warnings)
	}
}

func TestRewrite_EmptyCaptureWarns(t *testing.T) {
	in := `<mark class="" style="background: #ff0000">x</mark>`
	out, warnings := Rewrite(in, []model.ColorScheme{important}, model.Dark)
	assert.Equal(t, in, out)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.ReasonEmptyCapture, warnings[0].Reason)
}

func TestRewrite_MultipleSchemesIndependently(t *testing.T) {
	schemes := []model.ColorScheme{important, calm}
	in := "a " + markup.Encode(calm, model.Light, "one") +
		" b " + markup.Encode(important, model.Light, "two") +
		" c " + markup.Encode(calm, model.Dark, "three")

	out, warnings := Rewrite(in, schemes, model.Dark)
	assert.Empty(t, warnings)
	assert.Equal(t, "a "+markup.Encode(calm, model.Dark, "one")+
		" b "+markup.Encode(important, model.Dark, "two")+
		" c "+markup.Encode(calm, model.Dark, "three"), out)

	back, _ := Rewrite(out, schemes, model.Light)
	assert.Equal(t, "a "+markup.Encode(calm, model.Light, "one")+
		" b "+markup.Encode(important, model.Light, "two")+
		" c "+markup.Encode(calm, model.Light, "three"), back)
}

func TestRewrite_IdenticalFragments(t *testing.T) {
	frag := markup.Encode(important, model.Light, "same")
	in := frag + "\n" + frag + "\n" + frag
	out, warnings := Rewrite(in, []model.ColorScheme{important}, model.Dark)
	assert.Empty(t, warnings)
	assert.Equal(t, 3, strings.Count(out, `style="background: #aa0000"`))
	assert.NotContains(t, out, "#ff0000")
}

func TestRewrite_Idempotent(t *testing.T) {
	schemes := []model.ColorScheme{important, calm}
	texts := []string{
		"",
		"no markup",
		markup.Encode(important, model.Light, "x") + markup.Encode(calm, model.Dark, "y"),
		`<mark class="unknown" style="background: #123456">x</mark>` + markup.Encode(calm, model.Light, "z"),
		`<mark class="important" style="background: #ff0000; border: 1px">x</mark>`,
	}
	for _, text := range texts {
		for _, m := range []model.Mode{model.Light, model.Dark} {
			once, _ := Rewrite(text, schemes, m)
			twice, _ := Rewrite(once, schemes, m)
			assert.Equal(t, once, twice)
		}
	}
}

func TestRewrite_PatternCharactersInFragment(t *testing.T) {
	weird := model.ColorScheme{Name: "a.b* (c)+", LightColor: "#111111", DarkColor: "#222222"}
	in := "pre " + markup.Encode(weird, model.Light, "$1 \\n") + " post"
	out, warnings := Rewrite(in, []model.ColorScheme{weird}, model.Dark)
	assert.Empty(t, warnings)
	assert.Equal(t, "pre "+markup.Encode(weird, model.Dark, "$1 \\n")+" post", out)
}

func TestRewrite_ColorInsideClassUntouched(t *testing.T) {
	odd := model.ColorScheme{Name: "tag #ff0000", LightColor: "#ff0000", DarkColor: "#000000"}
	in := markup.Encode(odd, model.Light, "x")
	out, _ := Rewrite(in, []model.ColorScheme{odd}, model.Dark)
	assert.Equal(t, `<mark class="tag-#ff0000" style="background: #000000">x</mark>`, out)
}

func TestResolve(t *testing.T) {
	my := model.ColorScheme{Name: "My Scheme", LightColor: "#fff", DarkColor: "#000"}
	hyphen := model.ColorScheme{Name: "to-do", LightColor: "#fff", DarkColor: "#000"}

	got, ok := Resolve("my-scheme", []model.ColorScheme{important, my})
	require.True(t, ok)
	assert.Equal(t, "My Scheme", got.Name)

	got, ok = Resolve("MY-SCHEME", []model.ColorScheme{my})
	require.True(t, ok)
	assert.Equal(t, "My Scheme", got.Name)

	got, ok = Resolve("to-do", []model.ColorScheme{hyphen})
	require.True(t, ok)
	assert.Equal(t, "to-do", got.Name)

	_, ok = Resolve("nothing", []model.ColorScheme{my})
	assert.False(t, ok)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	first := model.ColorScheme{Name: "Dup", LightColor: "#111111", DarkColor: "#222222"}
	second := model.ColorScheme{Name: "dup", LightColor: "#333333", DarkColor: "#444444"}

	in := markup.Encode(first, model.Light, "x")
	out, _ := Rewrite(in, []model.ColorScheme{first, second}, model.Dark)
	assert.Contains(t, out, "#222222")

	out, _ = Rewrite(in, []model.ColorScheme{second, first}, model.Dark)
	assert.Contains(t, out, "#444444")
}
