package billing

import "strings"

// AmountInWords spells an amount in French, the wording printed under the
// total of the invoice. Negative amounts are prefixed with "moins".
func AmountInWords(n int64) string {
	if n == 0 {
		return "zéro"
	}
	if n < 0 {
		return "moins " + AmountInWords(-n)
	}

	var parts []string
	groups := []struct {
		value    int64
		singular string
		plural   string
	}{
		{1_000_000_000, "milliard", "milliards"},
		{1_000_000, "million", "millions"},
	}
	for _, g := range groups {
		if n >= g.value {
			count := n / g.value
			n %= g.value
			name := g.singular
			if count > 1 {
				name = g.plural
			}
			parts = append(parts, below1000(count)+" "+name)
		}
	}
	if n >= 1000 {
		count := n / 1000
		n %= 1000
		// "mille" never takes an s, and "un mille" is just "mille".
		if count == 1 {
			parts = append(parts, "mille")
		} else {
			parts = append(parts, below1000(count)+" mille")
		}
	}
	if n > 0 {
		parts = append(parts, below1000(n))
	}
	return strings.Join(parts, " ")
}

var units = []string{"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept",
	"huit", "neuf", "dix", "onze", "douze", "treize", "quatorze", "quinze", "seize"}

func below1000(n int64) string {
	if n >= 100 {
		count := n / 100
		rest := n % 100
		var head string
		switch {
		case count == 1:
			head = "cent"
		case rest == 0:
			head = units[count] + " cents"
		default:
			head = units[count] + " cent"
		}
		if rest == 0 {
			return head
		}
		return head + " " + below100(rest)
	}
	return below100(n)
}

func below100(n int64) string {
	switch {
	case n < 17:
		return units[n]
	case n < 20:
		return "dix-" + units[n-10]
	case n < 70:
		tens := []string{"vingt", "trente", "quarante", "cinquante", "soixante"}
		t := tens[n/10-2]
		switch n % 10 {
		case 0:
			return t
		case 1:
			return t + " et un"
		default:
			return t + "-" + units[n%10]
		}
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + below100(n-60)
	default:
		if n == 80 {
			return "quatre-vingts"
		}
		return "quatre-vingt-" + below100(n-80)
	}
}
