package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/smart715/jobsify/pkg/config"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

var (
	firstWords = []string{"Acme", "Bento", "Cobalt", "Dune", "Émile", "Fjord", "Granite", "Harbor", "Indigo", "Juniper", "Kestrel", "Lumen", "Meridian", "Nimbus", "Orchid", "Pioneer"}
	lastWords  = []string{"Labs", "Works", "Group", "Systems", "Partners", "Studio", "Logistics", "Foods"}
	people     = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Katherine Johnson", "Linus Pauling", "Mária Telkes", "Chien-Shiung Wu", "José Rizal"}
	cities     = []string{"Lisbon", "Kraków", "Nairobi", "Osaka", "Quito", "Tallinn", "Zürich"}
	statuses   = []string{"active", "inactive", "paid", "unpaid", "completed", "incomplete"}
)

// Seed fills every collection with n generated records. The same seed value
// always produces the same data.
func (s *Server) Seed(n int, seed int64, now time.Time) {
	rnd := rand.New(rand.NewSource(seed))
	for _, name := range s.order {
		res := s.resources[name]
		for i := 0; i < n; i++ {
			res.col.Seed(fakeRecord(rnd, res.entity, i, now))
		}
	}
}

func fakeRecord(rnd *rand.Rand, e config.Entity, i int, now time.Time) v1.Record {
	r := v1.Record{}
	idField := e.IDField
	if idField == "" {
		idField = v1.DefaultIDField
	}
	for _, c := range e.Columns {
		if c.Key == idField {
			continue
		}
		setPath(r, c.Key, fakeValue(rnd, e, c, i, now))
	}
	for _, f := range e.Form {
		if r.Get(f.Name) == nil {
			setPath(r, f.Name, fakeValue(rnd, e, config.Column{Key: f.Name}, i, now))
		}
	}
	return r
}

func setPath(r v1.Record, path string, v any) {
	parts := strings.Split(path, ".")
	m := map[string]any(r)
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func pick(rnd *rand.Rand, from []string) string {
	return from[rnd.Intn(len(from))]
}

func fakeValue(rnd *rand.Rand, e config.Entity, c config.Column, i int, now time.Time) any {
	key := strings.ToLower(c.Key)
	switch {
	case strings.Contains(key, "email"):
		return fmt.Sprintf("%s%d@example.test", strings.ToLower(pick(rnd, []string{"ops", "hello", "billing", "team"})), i+1)
	case strings.HasPrefix(key, "is_"):
		return rnd.Intn(2) == 0
	case strings.Contains(key, "status"):
		return pick(rnd, statuses)
	case strings.Contains(key, "city"):
		return pick(rnd, cities)
	case strings.HasSuffix(key, "number"):
		return fmt.Sprintf("INV-%04d", i+1)
	}

	switch c.Format {
	case "money":
		return json.Number(strconv.FormatFloat(float64(rnd.Intn(500000))/100, 'f', 2, 64))
	case "number":
		return json.Number(strconv.Itoa(rnd.Intn(1000)))
	case "bool":
		return rnd.Intn(2) == 0
	case "date", "holiday":
		return now.AddDate(0, 0, rnd.Intn(365)-180).Format("2006-01-02")
	case "relative":
		return now.Add(-time.Duration(rnd.Intn(90*24)) * time.Hour).Format(time.RFC3339)
	}

	switch {
	case strings.Contains(key, "employee") || strings.HasSuffix(key, "display_name"):
		return pick(rnd, people)
	case key == "name" && (e.Name == "employees" || e.Name == "super-admins" || e.Name == "clients"):
		return pick(rnd, people)
	case strings.Contains(key, "name") || key == "heading" || key == "title" || key == "award":
		return pick(rnd, firstWords) + " " + pick(rnd, lastWords)
	}
	return fmt.Sprintf("%s %d", c.Key, i+1)
}
