// Package resource shapes records into API representations. Field
// visibility is resolved through explicit per-resource tables mapping field
// name to a visibility predicate; gated fields are absent from the output,
// never null. Projection never touches storage.
package resource

import (
	"blog-api/internal/authz"
	"blog-api/internal/lifecycle"
	"blog-api/internal/model"
	"blog-api/internal/query"
	"github.com/gin-gonic/gin"
)

// PrivilegedRoles may see gated post fields (meta_data, edit URL) on posts
// they do not own.
var PrivilegedRoles = []string{"admin", "editor"}

type postField struct {
	name    string
	value   func(*model.Post) any
	visible func(*model.Post, *authz.Identity) bool
}

func always(*model.Post, *authz.Identity) bool { return true }

// ownerOrPrivileged gates a field to the post's owner or a caller holding
// one of the privileged roles.
func ownerOrPrivileged(p *model.Post, id *authz.Identity) bool {
	return id.Owns(p.UserID) || id.HasAnyRole(PrivilegedRoles...)
}

func authorLoaded(p *model.Post, _ *authz.Identity) bool { return p.User != nil }

var postFields = []postField{
	{name: "id", value: func(p *model.Post) any { return p.ID }, visible: always},
	{name: "title", value: func(p *model.Post) any { return p.Title }, visible: always},
	{name: "slug", value: func(p *model.Post) any { return p.Slug }, visible: always},
	{name: "content", value: func(p *model.Post) any { return p.Content }, visible: always},
	{name: "excerpt", value: func(p *model.Post) any { return p.Excerpt }, visible: always},
	{name: "status", value: func(p *model.Post) any { return p.Status }, visible: always},
	{name: "featured_image", value: func(p *model.Post) any { return p.FeaturedImage }, visible: always},
	{name: "published_at", value: func(p *model.Post) any { return p.PublishedAt }, visible: always},
	{name: "published_date", value: publishedDate, visible: always},
	{name: "reading_time", value: func(p *model.Post) any { return lifecycle.ReadingTime(p.Content) }, visible: always},
	{name: "is_published", value: func(p *model.Post) any { return p.IsPublished() }, visible: always},
	{name: "is_draft", value: func(p *model.Post) any { return p.IsDraft() }, visible: always},
	{name: "created_at", value: func(p *model.Post) any { return p.CreatedAt }, visible: always},
	{name: "updated_at", value: func(p *model.Post) any { return p.UpdatedAt }, visible: always},
	{name: "meta_data", value: func(p *model.Post) any { return p.MetaData }, visible: ownerOrPrivileged},
	{name: "author", value: compactAuthor, visible: authorLoaded},
	{name: "user", value: fullAuthor, visible: authorLoaded},
}

func publishedDate(p *model.Post) any {
	if p.PublishedAt == nil {
		return nil
	}
	return p.PublishedAt.Format("Jan 02, 2006")
}

func compactAuthor(p *model.Post) any {
	return gin.H{
		"id":    p.User.ID,
		"name":  p.User.Name,
		"email": p.User.Email,
	}
}

func fullAuthor(p *model.Post) any {
	return User(p.User, query.Spec{})
}

// Post renders one post for the given caller.
func Post(p *model.Post, id *authz.Identity) gin.H {
	out := gin.H{}
	for _, f := range postFields {
		if f.visible(p, id) {
			out[f.name] = f.value(p)
		}
	}
	out["urls"] = postURLs(p, id)
	return out
}

// Posts renders a page of posts.
func Posts(page *query.Page[model.Post], id *authz.Identity) gin.H {
	items := make([]gin.H, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, Post(&page.Items[i], id))
	}
	return gin.H{"items": items, "meta": page.Meta}
}

func postURLs(p *model.Post, id *authz.Identity) gin.H {
	urls := gin.H{"show": "/api/v1/posts/" + p.Slug}
	if ownerOrPrivileged(p, id) {
		urls["edit"] = "/api/v1/posts/" + p.Slug
	}
	return urls
}
