package controlpanel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mastercactapus/gpanel/machine"
)

// ErrUnknownItem is returned when activating a menu item that does not exist.
var ErrUnknownItem = errors.New("unknown menu item")

type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	cmd machine.HomeAxes
}

type Menu struct {
	Title string     `json:"title"`
	Items []MenuItem `json:"items"`
}

func homeItem(axis machine.AxisID, dir machine.Direction) MenuItem {
	end := "min"
	label := "minimum"
	if dir == machine.Positive {
		end = "max"
		label = "maximum"
	}
	return MenuItem{
		ID:    fmt.Sprintf("home-%s-%s", strings.ToLower(axis.String()), end),
		Label: fmt.Sprintf("Home %s to %s", axis, label),
		cmd:   machine.HomeAxes{Axes: []machine.AxisID{axis}, Direction: dir},
	}
}

// homingMenu offers single axis homing for every configured endstop.
// Homing several axes at once is left out; some machines need a fixed
// homing order.
func homingMenu(m Machine) Menu {
	menu := Menu{Title: "Homing"}
	for _, axis := range machine.Axes {
		e, ok := m.Endstops(axis)
		if !ok {
			continue
		}
		if e.HasMin {
			menu.Items = append(menu.Items, homeItem(axis, machine.Negative))
		}
		if e.HasMax {
			menu.Items = append(menu.Items, homeItem(axis, machine.Positive))
		}
	}
	return menu
}

// Item returns the menu item with the given ID.
func (m Menu) Item(id string) (MenuItem, bool) {
	for _, item := range m.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}
