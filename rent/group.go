package rent

import (
	"fmt"
	"strconv"
	"strings"
)

// RentalObjectGroup is a node in the rental object hierarchy.
// ParentPath is materialised as "<root id>/.../<own id>/".
type RentalObjectGroup struct {
	ID         ID
	Name       string
	ParentID   *ID
	ParentPath string
	Active     bool
}

// PathFor computes the ParentPath of a group given its parent (nil for roots).
func PathFor(id ID, parent *RentalObjectGroup) string {
	own := strconv.FormatInt(int64(id), 10) + "/"
	if parent == nil {
		return own
	}
	return parent.ParentPath + own
}

// IsWithin reports whether g is root or one of its descendants.
func (g RentalObjectGroup) IsWithin(root RentalObjectGroup) bool {
	return strings.HasPrefix(g.ParentPath, root.ParentPath)
}

// FullNames returns "Parent / Child" names keyed by group ID.
func FullNames(groups []RentalObjectGroup) map[ID]string {
	byID := make(map[ID]RentalObjectGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	names := make(map[ID]string, len(groups))
	for _, g := range groups {
		var parts []string
		for _, seg := range strings.Split(strings.TrimSuffix(g.ParentPath, "/"), "/") {
			n, err := strconv.ParseInt(seg, 10, 64)
			if err != nil {
				continue
			}
			if anc, ok := byID[ID(n)]; ok {
				parts = append(parts, anc.Name)
			}
		}
		if len(parts) == 0 {
			parts = []string{g.Name}
		}
		names[g.ID] = strings.Join(parts, " / ")
	}
	return names
}

// SubtreeIDs returns the IDs of root and all its descendants.
func SubtreeIDs(root RentalObjectGroup, groups []RentalObjectGroup) map[ID]bool {
	ids := map[ID]bool{root.ID: true}
	for _, g := range groups {
		if g.IsWithin(root) {
			ids[g.ID] = true
		}
	}
	return ids
}

// ValidateParent rejects a parent that would create a cycle.
func ValidateParent(g RentalObjectGroup, parent *RentalObjectGroup) error {
	if parent == nil || g.ID == 0 {
		return nil
	}
	if parent.ID == g.ID || (g.ParentPath != "" && parent.IsWithin(g)) {
		return fmt.Errorf("group %d cannot be its own ancestor", g.ID)
	}
	return nil
}
