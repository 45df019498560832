package attempt

import (
	"hash/fnv"
	"math/rand/v2"
	"strconv"
)

// OptionOrder returns the display order of a question's options: element i
// is the original index of the option shown at position i. The order
// depends only on the exam id, the question index and the option count, so
// it is the same on every render and after a reload.
func OptionOrder(examID string, question, n int) []int {
	order := identityOrder(n)
	if n < 2 {
		return order
	}

	h := fnv.New64a()
	h.Write([]byte(examID))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(question)))
	seed := h.Sum64()

	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
