package styles

// LightTheme mirrors DarkTheme for light terminals.
var LightTheme = Theme{
	Name:        "light",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "255",
		Foreground: "235",
		Muted:      "242",
		Accent:     "54",
		Border:     "250",
	},
	Status: StatusColors{
		Connected:    "28",
		Connecting:   "136",
		Disconnected: "160",
	},
	Toast: ToastColors{
		Success: "54",
		Error:   "160",
	},
	Chrome: ChromeColors{
		Header:    "189",
		Footer:    "254",
		Selected:  "54",
		Progress:  "25",
		Scrollbar: "244",
	},
	Borders: BorderColors{
		ActivePane:   "54",
		InactivePane: "250",
		Divider:      "252",
	},
}
