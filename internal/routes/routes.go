package routes

import (
	"github.com/AnshRaj112/profilefarm-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Profile *handlers.ProfileHandler
	Family  *handlers.FamilyHandler
	Proxy   *handlers.ProxyHandler
}

func SetupRoutes(r chi.Router, h Handlers) {
	// Profile routes
	r.Route("/profile", func(r chi.Router) {
		r.Post("/create", h.Profile.Create)
		r.Get("/getAll", h.Profile.GetAll)
		r.Post("/generate/{count}", h.Profile.Generate)

		// Family state on profiles
		r.Get("/family/no-family", h.Profile.NoFamily)
		r.Get("/family/parent-no-child", h.Profile.ParentNoChild)
		r.Post("/{uuid}/family/parent", h.Profile.AddParent)
		r.Post("/{uuid}/family/{parentId}/children", h.Profile.AddChild)

		r.Get("/{uuid}", h.Profile.Get)
	})

	// Standalone family routes
	r.Route("/family", func(r chi.Router) {
		r.Post("/create", h.Family.Create)
		r.Post("/update/{familyId}/children", h.Family.AddChild)
		r.Get("/{familyId}", h.Family.Get)
	})

	// Proxy pool routes
	r.Post("/api/proxy/generate", h.Proxy.Generate)
	r.Route("/proxy", func(r chi.Router) {
		r.Get("/", h.Proxy.List)
		r.Get("/unused", h.Proxy.Unused)
		r.Get("/{host}/{port}/used", h.Proxy.Used)
	})
}
