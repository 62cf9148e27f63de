package echoportal

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core/session"
)

// dashboardViews maps a page name to its mock content.
type dashboardViews map[string]func(sess session.Session) interface{}

// areaViews holds the pages of each role area in guard.Areas.
var areaViews = map[string]dashboardViews{
	"/student": studentViews,
	"/faculty": facultyViews,
	"/admin":   adminViews,
	"/library": libraryViews,
}

// registerDashboards serves views under prefix; the bare prefix lands on the dashboard.
func registerDashboards(g *echo.Group, s *Server, prefix string, views dashboardViews) {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		name, data := name, views[name]
		g.GET("/"+name, func(ctx echo.Context) error {
			return s.render(ctx, http.StatusOK, view{Name: strings.TrimPrefix(prefix, "/") + "/" + name, Data: data(contextSession(ctx))})
		})
	}
	g.GET("", func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusFound, prefix+"/dashboard")
	})
}

func withProfile(data echo.Map) func(session.Session) interface{} {
	return func(sess session.Session) interface{} {
		out := echo.Map{"profile": sess.Profile}
		for k, v := range data {
			out[k] = v
		}
		return out
	}
}

func static(data interface{}) func(session.Session) interface{} {
	return func(session.Session) interface{} { return data }
}

// Dashboards show fixed sample records.

var studentViews = dashboardViews{
	"dashboard": withProfile(echo.Map{
		"attendance": 87.5,
		"upcoming":   []echo.Map{
			{"course": "CS204", "title": "Data Structures quiz", "date": "2024-09-12"},
			{"course": "MA201", "title": "Linear Algebra assignment", "date": "2024-09-15"},
		},
	}),
	"courses": static([]echo.Map{
		{"code": "CS204", "name": "Data Structures", "credits": 4, "faculty": "Dr. Grace Hopper"},
		{"code": "MA201", "name": "Linear Algebra", "credits": 3, "faculty": "Dr. Emmy Noether"},
		{"code": "HS101", "name": "Technical Writing", "credits": 2, "faculty": "Prof. Orwell"},
	}),
	"grades": static([]echo.Map{
		{"semester": 1, "sgpa": 8.0},
		{"semester": 2, "sgpa": 8.4},
	}),
}

var facultyViews = dashboardViews{
	"dashboard": withProfile(echo.Map{
		"classesToday":   3,
		"pendingReviews": 14,
	}),
	"courses": static([]echo.Map{
		{"code": "CS101", "name": "Introduction to Programming", "students": 120},
		{"code": "CS204", "name": "Data Structures", "students": 86},
	}),
	"attendance": static([]echo.Map{
		{"course": "CS101", "date": "2024-09-09", "present": 109, "absent": 11},
		{"course": "CS204", "date": "2024-09-10", "present": 80, "absent": 6},
	}),
}

var adminViews = dashboardViews{
	"dashboard": withProfile(echo.Map{
		"students":    2450,
		"faculty":     132,
		"departments": 9,
		"librarians":  6,
	}),
	"users": static([]echo.Map{
		{"name": "Demo Student", "email": "student@campus.test", "role": "student", "isActive": true},
		{"name": "Demo Faculty", "email": "faculty@campus.test", "role": "faculty", "isActive": true},
		{"name": "Demo Librarian", "email": "librarian@campus.test", "role": "librarian", "isActive": true},
	}),
}

var libraryViews = dashboardViews{
	"dashboard": withProfile(echo.Map{
		"books":    18250,
		"issued":   1342,
		"overdue":  57,
		"requests": 12,
	}),
	"books": static([]echo.Map{
		{"isbn": "978-0262033848", "title": "Introduction to Algorithms", "available": 4},
		{"isbn": "978-0131103627", "title": "The C Programming Language", "available": 0},
	}),
}
