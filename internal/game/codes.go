package game

import "strings"

// roomWords are four-letter words used as room codes.
var roomWords = []string{
	"BARK", "BEAM", "BOLT", "CAKE", "CLAM", "COIN", "CROW", "DART",
	"DICE", "DOVE", "DUSK", "FERN", "FIZZ", "FLAG", "FOAM", "FROG",
	"GLOW", "GOAT", "HAWK", "HERO", "HIVE", "JAZZ", "JOLT", "KELP",
	"KITE", "LAMP", "LARK", "LIME", "LOOM", "MAZE", "MINT", "MOLE",
	"MOTH", "NEON", "NOVA", "OPAL", "OWLS", "PEAR", "PLUM", "PUMA",
	"QUIZ", "RAFT", "REEF", "ROBE", "RUBY", "SAGE", "SALT", "SNOW",
	"SOCK", "SODA", "TACO", "TIDE", "TOAD", "TUBA", "VASE", "VOLT",
	"WASP", "WAVE", "WISP", "YETI", "YOLK", "ZANY", "ZERO", "ZINC",
}

// NormalizeCode uppercases and trims a user-supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
