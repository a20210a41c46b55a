// Package roomname generates memorable room ids such as "brave-echo-otter".
package roomname

import (
	"crypto/rand"
	"math/big"
	"strings"
)

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "bright", "gentle", "brave", "calm", "swift",
	"quiet", "loud", "bouncy", "fuzzy", "plucky", "merry", "peppy", "mellow", "lively", "dreamy",
}

var sounds = []string{
	"echo", "static", "signal", "tempo", "chorus", "jingle", "anthem", "ballad", "melody", "rhythm",
	"treble", "reverb", "encore", "lyric", "cadence", "harmony", "studio", "tuner", "dial", "chirp",
	"hum", "whistle", "drumroll", "riff", "groove", "sonnet", "refrain", "verse", "beat", "chime",
}

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"raccoon", "beaver", "seahorse", "dolphin", "whale", "narwhal", "penguin", "flamingo", "pelican", "sparrow",
	"robin", "toucan", "parrot", "canary", "owl", "lynx", "badger", "heron", "falcon", "walrus",
}

// Generate returns a random adjective-sound-animal id.
func Generate() string {
	return strings.Join([]string{pick(adjectives), pick(sounds), pick(animals)}, "-")
}

func pick(words []string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		panic("roomname: reading random source: " + err.Error())
	}
	return words[n.Int64()]
}
