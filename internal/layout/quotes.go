package layout

// quotes rotate through the quote window, one per day.
var quotes = []string{
	"The best way to predict the future is to invent it.",
	"Simplicity is prerequisite for reliability.",
	"Weeks of coding can save you hours of planning.",
	"Make it work, make it right, make it fast.",
	"Programs must be written for people to read, and only incidentally for machines to execute.",
	"Controlling complexity is the essence of computer programming.",
	"Deleted code is debugged code.",
	"A clever person solves a problem. A wise person avoids it.",
	"First, solve the problem. Then, write the code.",
	"There is no silver bullet.",
	"Premature optimization is the root of all evil.",
	"Don't comment bad code. Rewrite it.",
	"The cheapest, fastest and most reliable components are those that aren't there.",
	"Good judgment comes from experience, and experience comes from bad judgment.",
}
