package dataprocessing

import (
	"regexp"
	"strings"
	"time"

	"viewership/pkg/contracts/domain"
)

// groupTitleExceptions maps titles whose natural grouping is wrong
var groupTitleExceptions = map[string]string{
	"Bright: Samurai Soul // ブライト: サムライソウル": "Bright: Samurai Soul",
	"Pokémon the Movie: Secrets of the Jungle":    "Pokémon",
	"Rebel Moon": "Rebel Moon",
}

// groupTitleFixedPoints holds every exception result so that grouping an
// already-grouped title returns it unchanged
var groupTitleFixedPoints = func() map[string]struct{} {
	out := make(map[string]struct{}, len(groupTitleExceptions))
	for _, v := range groupTitleExceptions {
		out[v] = struct{}{}
	}
	return out
}()

// licensedExceptions are always Licensed, release date or not
var licensedExceptions = map[string]struct{}{
	"Arrested Development": {},
}

var sequelSuffix = regexp.MustCompile(`\s\d$`)

// GroupTitleException returns the override for title, if any
func GroupTitleException(title string) (string, bool) {
	if g, ok := groupTitleExceptions[title]; ok {
		return g, true
	}
	if _, ok := groupTitleFixedPoints[title]; ok {
		return title, true
	}
	return "", false
}

// GroupTitle maps a title to its franchise: "Despicable Me 2" and
// "Bridgerton: Season 3" group under "Despicable Me" and "Bridgerton".
// The rules repeat until the title stops changing, so the result is its
// own group title.
func GroupTitle(title string) string {
	for {
		if g, ok := GroupTitleException(title); ok {
			return g
		}
		next := groupOnce(title)
		if next == title {
			return next
		}
		title = next
	}
}

func groupOnce(title string) string {
	stripped := sequelSuffix.ReplaceAllString(title, "")

	head := stripped
	if i := strings.Index(head, ":"); i >= 0 {
		head = head[:i]
	}
	if i := strings.Index(head, "//"); i >= 0 {
		head = head[:i]
	}
	head = strings.TrimSpace(head)

	// a title that starts with a delimiter keeps its text
	if head == "" {
		return strings.TrimSpace(stripped)
	}
	return head
}

// DetermineOwnership classifies a title: Licensed when it has no release
// date or is a known acquisition, Original otherwise
func DetermineOwnership(title string, releaseDate *time.Time) domain.Ownership {
	if _, ok := licensedExceptions[title]; ok {
		return domain.OwnershipLicensed
	}
	if releaseDate == nil {
		return domain.OwnershipLicensed
	}
	return domain.OwnershipOriginal
}
