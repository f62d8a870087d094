package ui

import (
	"bytes"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"carprice/domain/car"

	"github.com/gin-gonic/gin"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"add":      func(a, b int) int { return a + b },
		"fmtNum":   formatNumber,
		"fmtFloat": formatFloat,
		"pvalue":   formatPValue,
		"label":    func(f car.Field) string { return car.Label(f) },
		"until": func(n int) []int {
			res := make([]int, n)
			for i := range res {
				res[i] = i
			}
			return res
		},
	}
}

// renderTemplate executes a template into a buffer first so a failing
// template never leaves a half-written page behind.
func (s *Server) renderTemplate(c *gin.Context, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("Template error for %s: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.log.Warn("Error writing template response: %v", err)
	}
}

// formatNumber renders a possibly undefined value with thousands separators.
// Money is shown without decimals; everything else with one.
func formatNumber(n car.Number, unit string) string {
	v, ok := n.Float()
	if !ok {
		return "n/a"
	}
	prec := 1
	if unit == "£" {
		prec = 0
	}
	s := groupThousands(strconv.FormatFloat(v, 'f', prec, 64))
	switch unit {
	case "":
		return s
	case "£":
		return "£" + s
	default:
		return s + " " + unit
	}
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatPValue(p float64) string {
	switch {
	case math.IsNaN(p):
		return "n/a"
	case p < 0.0001:
		return "< 0.0001"
	default:
		return strconv.FormatFloat(p, 'f', 4, 64)
	}
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
