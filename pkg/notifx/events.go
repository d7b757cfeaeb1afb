package notifx

// EntityType identifies the kind of entity an update event refers to.
type EntityType string

const (
	EntityOrganization EntityType = "ORGANIZATION"
	EntityProject      EntityType = "PROJECT"
	EntityProduct      EntityType = "PRODUCT"
)

// UpdateType identifies the kind of update being announced.
type UpdateType string

const (
	UpdateOrganization UpdateType = "ORGANIZATION_UPDATE"
	UpdateProject      UpdateType = "PROJECT_UPDATE"
	UpdateProduct      UpdateType = "PRODUCT_UPDATE"
)

// EntityUpdateEvent announces that an entity changed and its followers
// should be notified. Metadata is an open map; its values are whatever the
// producing module put there.
type EntityUpdateEvent struct {
	EntityID   string                 `json:"entityId"`
	EntityType EntityType             `json:"entityType"`
	UpdateType UpdateType             `json:"updateType"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedBy  string                 `json:"createdBy,omitempty"`
}
