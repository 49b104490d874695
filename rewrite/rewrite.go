// Package rewrite updates the colors of highlight tags in a document to match a display mode.
package rewrite

import (
	"strings"

	"themedmark/markup"
	"themedmark/model"
)

// Resolve returns the first scheme whose name matches token, ignoring case and treating
// hyphens and spaces alike.
func Resolve(token string, schemes []model.ColorScheme) (model.ColorScheme, bool) {
	name := markup.NameFromToken(token)
	for _, s := range schemes {
		if strings.EqualFold(markup.NameFromToken(markup.Token(s.Name)), name) {
			return s, true
		}
	}
	return model.ColorScheme{}, false
}

// Rewrite returns text with every resolvable highlight tag recolored for target.
// Tags that cannot be resolved are left as they are and reported as warnings. With no
// schemes configured there is nothing to resolve against and nothing is reported.
//
// Replacements are keyed by the tag's exact text, so textually identical tags are all
// rewritten together.
func Rewrite(text string, schemes []model.ColorScheme, target model.Mode) (string, []model.Warning) {
	if len(schemes) == 0 {
		return text, nil
	}

	var (
		warnings []model.Warning
		pairs    []string
		seen     = make(map[string]struct{})
	)

	for occ := range markup.Decode(text) {
		if !occ.Valid() {
			warnings = append(warnings, warning(occ, model.ReasonEmptyCapture))
			continue
		}

		scheme, ok := Resolve(occ.Token, schemes)
		if !ok {
			warnings = append(warnings, warning(occ, model.ReasonUnresolvedScheme))
			continue
		}

		if _, dup := seen[occ.Raw]; dup {
			continue
		}
		seen[occ.Raw] = struct{}{}

		updated := occ.WithColor(scheme.Color(target))
		if updated != occ.Raw {
			pairs = append(pairs, occ.Raw, updated)
		}
	}

	if len(pairs) == 0 {
		return text, warnings
	}

	// Every tag ends at the closing quote of its style attribute; none is a prefix of another.
	return strings.NewReplacer(pairs...).Replace(text), warnings
}

func warning(occ model.Occurrence, reason model.WarningReason) model.Warning {
	return model.Warning{
		Raw:    occ.Raw,
		Token:  occ.Token,
		Color:  occ.Color,
		Reason: reason,
	}
}
