package moderation

// defaultBlocklist is the built-in term list loaded by NewFilter. Single
// words match token-wise (including leetspeak-normalized tokens); entries
// with spaces match as whole phrases.
var defaultBlocklist = []string{
	// Slurs.
	"nigger",
	"nigga",
	"faggot",
	"tranny",
	"kike",
	"spic",
	"chink",

	// Self-harm incitement.
	"kys",
	"kill yourself",
	"go die",
	"neck yourself",

	// Sexual exploitation.
	"child porn",
	"cp trade",
	"jailbait",
	"send nudes",

	// Extremism.
	"heil hitler",
	"sieg heil",
	"white power",

	// Threats.
	"bomb threat",
	"shoot up",
	"i will find you",

	// Scams and solicitation.
	"free bitcoin",
	"cashapp me",
	"onlyfans",
	"sugar daddy",
	"escort service",
}
