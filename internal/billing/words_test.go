package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountInWords(t *testing.T) {
	cases := map[int64]string{
		0:          "zéro",
		1:          "un",
		16:         "seize",
		17:         "dix-sept",
		21:         "vingt et un",
		34:         "trente-quatre",
		71:         "soixante et onze",
		75:         "soixante-quinze",
		80:         "quatre-vingts",
		81:         "quatre-vingt-un",
		90:         "quatre-vingt-dix",
		99:         "quatre-vingt-dix-neuf",
		100:        "cent",
		101:        "cent un",
		200:        "deux cents",
		215:        "deux cent quinze",
		1000:       "mille",
		2500:       "deux mille cinq cents",
		1501000:    "un million cinq cent un mille",
		2000000:    "deux millions",
		1000000000: "un milliard",
	}
	for amount, want := range cases {
		assert.Equal(t, want, AmountInWords(amount), "amount %d", amount)
	}
}

func TestAmountInWordsNegative(t *testing.T) {
	assert.Equal(t, "moins cent", AmountInWords(-100))
}
