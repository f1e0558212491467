package kernel

// Domain identifies the tenant boundary every role, organisation and
// authorization code is scoped to.
type Domain string

func NewDomain(d string) Domain { return Domain(d) }
func (d Domain) String() string { return string(d) }
func (d Domain) IsEmpty() bool  { return string(d) == "" }

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type OrgID string

func NewOrgID(id string) OrgID { return OrgID(id) }
func (o OrgID) String() string { return string(o) }
func (o OrgID) IsEmpty() bool  { return string(o) == "" }

type TeamID string

func NewTeamID(id string) TeamID { return TeamID(id) }
func (t TeamID) String() string  { return string(t) }
func (t TeamID) IsEmpty() bool   { return string(t) == "" }

type GroupID string

func NewGroupID(id string) GroupID { return GroupID(id) }
func (g GroupID) String() string   { return string(g) }
func (g GroupID) IsEmpty() bool    { return string(g) == "" }
