// Package kernel holds the shared identifiers and context plumbing used by
// every module.
package kernel

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type OrganizationID string

func NewOrganizationID(id string) OrganizationID { return OrganizationID(id) }
func (o OrganizationID) String() string          { return string(o) }
func (o OrganizationID) IsEmpty() bool           { return string(o) == "" }

type ProjectID string

func NewProjectID(id string) ProjectID { return ProjectID(id) }
func (p ProjectID) String() string     { return string(p) }
func (p ProjectID) IsEmpty() bool      { return string(p) == "" }

type ProductID string

func NewProductID(id string) ProductID { return ProductID(id) }
func (p ProductID) String() string     { return string(p) }
func (p ProductID) IsEmpty() bool      { return string(p) == "" }
