package metrics

import (
	"fmt"
	"strings"
)

// Confusion counts predictions per (true class, predicted class) pair.
type Confusion struct {
	counts  []int
	classes int
}

func NewConfusion(classes int) *Confusion {
	return &Confusion{
		counts:  make([]int, classes*classes),
		classes: classes,
	}
}

func (c *Confusion) Add(label, predicted int) {
	c.counts[label*c.classes+predicted]++
}

func (c *Confusion) Count(label, predicted int) int {
	return c.counts[label*c.classes+predicted]
}

func (c *Confusion) Total() int {
	var total int
	for _, n := range c.counts {
		total += n
	}
	return total
}

func (c *Confusion) Correct() int {
	var correct int
	for i := 0; i < c.classes; i++ {
		correct += c.Count(i, i)
	}
	return correct
}

// Accuracy is the fraction of predictions on the diagonal.
func (c *Confusion) Accuracy() float64 {
	var total = c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Correct()) / float64(total)
}

// Recall is the fraction of true members of class that were found.
func (c *Confusion) Recall(class int) float64 {
	var support int
	for predicted := 0; predicted < c.classes; predicted++ {
		support += c.Count(class, predicted)
	}
	if support == 0 {
		return 0
	}
	return float64(c.Count(class, class)) / float64(support)
}

// Precision is the fraction of predictions of class that were right.
func (c *Confusion) Precision(class int) float64 {
	var predicted int
	for label := 0; label < c.classes; label++ {
		predicted += c.Count(label, class)
	}
	if predicted == 0 {
		return 0
	}
	return float64(c.Count(class, class)) / float64(predicted)
}

// String renders the matrix with true classes as rows.
func (c *Confusion) String() string {
	var sb strings.Builder
	sb.WriteString("true\\pred")
	for class := 0; class < c.classes; class++ {
		fmt.Fprintf(&sb, "%6d", class)
	}
	sb.WriteString("   recall\n")
	for label := 0; label < c.classes; label++ {
		fmt.Fprintf(&sb, "%9d", label)
		for predicted := 0; predicted < c.classes; predicted++ {
			fmt.Fprintf(&sb, "%6d", c.Count(label, predicted))
		}
		fmt.Fprintf(&sb, "   %.4f\n", c.Recall(label))
	}
	return sb.String()
}
