package styles

// DarkTheme is the default palette.
var DarkTheme = Theme{
	Name:        "dark",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "141",
		Border:     "240",
	},
	Status: StatusColors{
		Connected:    "41",
		Connecting:   "220",
		Disconnected: "203",
	},
	Toast: ToastColors{
		Success: "141",
		Error:   "203",
	},
	Chrome: ChromeColors{
		Header:    "54",
		Footer:    "236",
		Selected:  "141",
		Progress:  "110",
		Scrollbar: "246",
	},
	Borders: BorderColors{
		ActivePane:   "141",
		InactivePane: "240",
		Divider:      "238",
	},
}
