package scenario

// BuiltIn returns the canned scenarios shipped with the binary, usable
// without any scenario file on disk.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"sweep": {
			Name:        "sweep",
			Description: "all drones explore from the start until every target is found",
			Steps: []Step{
				{Tick: 0, Goal: "find all targets"},
			},
		},
		"corner-patrol": {
			Name:        "corner-patrol",
			Description: "drone 1 walks the perimeter while the rest explore",
			Steps: []Step{
				{Tick: 0, Goal: "patrol the perimeter"},
				{Tick: 2, Command: "drone 2 explore"},
				{Tick: 2, Command: "drone 3 explore"},
			},
		},
		"staged-search": {
			Name:        "staged-search",
			Description: "manual opening moves, then exploration after a holding pattern",
			Steps: []Step{
				{Tick: 0, Command: "drone 1 up=3 and right=2"},
				{Tick: 0, Command: "drone 2 wait 4"},
				{Tick: 5, Goal: "find all targets"},
			},
		},
	}
}
