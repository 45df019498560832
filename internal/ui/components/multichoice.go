package components

import (
	"fmt"
	"slices"
	"strings"


	"github.com/alexandernovadev/languagesai/internal/ui/theme"
)

// OptionList renders a question's options in display order. Order maps a
// display position to the original option index; Chosen holds original
// indices.
type OptionList struct {
	Options []string
	Order   []int
	Chosen  []int
	Cursor  int
	Multi   bool
}

// Move shifts the cursor by delta, clamped to the list.
func (o *OptionList) Move(delta int) {
	o.Cursor = min(max(o.Cursor+delta, 0), max(len(o.Order)-1, 0))
}

// View renders one line per option. Multi-select lists use check boxes,
// single-choice lists use radio marks.
func (o OptionList) View() string {
	var b strings.Builder
	for pos, orig := range o.Order {
		if orig < 0 || orig >= len(o.Options) {
			continue
		}

		mark := "( )"
		if o.Multi {
			mark = "[ ]"
		}
		chosen := slices.Contains(o.Chosen, orig)
		if chosen {
			mark = "(•)"
			if o.Multi {
				mark = "[x]"
			}
		}

		prefix := "  "
		if pos == o.Cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d. %s %s", prefix, pos+1, mark, o.Options[orig])

		switch {
		case pos == o.Cursor:
			b.WriteString(theme.Cursor.Render(line))
		case chosen:
			b.WriteString(theme.Chosen.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
