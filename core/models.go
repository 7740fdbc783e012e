package core

// UserRef is the compact author/counterpart shape embedded in other resources.
type UserRef struct {
	ID          FlexID `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type Post struct {
	ID            FlexID   `json:"id"`
	UserID        FlexID   `json:"user_id"`
	Username      string   `json:"username"`
	DisplayName   string   `json:"display_name"`
	AvatarURL     string   `json:"avatar_url"`
	Verified      string   `json:"verified"`
	Content       string   `json:"content"`
	Media         []string `json:"media"`
	LikesCount    int      `json:"likes_count"`
	CommentsCount int      `json:"comments_count"`
	RepostsCount  int      `json:"reposts_count"`
	ViewsCount    int      `json:"views_count"`
	IsLiked       bool     `json:"is_liked"`
	IsReposted    bool     `json:"is_reposted"`
	RepostOf      *struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"repost_of,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Comment nodes form a tree through Replies.
type Comment struct {
	ID            FlexID    `json:"id"`
	UserID        FlexID    `json:"user_id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     string    `json:"avatar_url"`
	Verified      string    `json:"verified"`
	Text          string    `json:"text"`
	LikesCount    int       `json:"likes_count"`
	IsLiked       bool      `json:"is_liked"`
	IsAuthorLiked bool      `json:"is_author_liked"`
	IsPinned      bool      `json:"is_pinned"`
	ReplyToID     FlexID    `json:"reply_to_id,omitempty"`
	Replies       []Comment `json:"replies,omitempty"`
	CreatedAt     string    `json:"created_at"`
}

type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// Profile is a public profile plus the viewer's relation to it.
type Profile struct {
	User
	IsFollowing bool `json:"is_following"`
	IsRequested bool `json:"is_requested"`
	IsOwn       bool `json:"is_own"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type RepostResult struct {
	Reposted     bool `json:"reposted"`
	RepostsCount int  `json:"reposts_count"`
}

type FollowResult struct {
	Following bool `json:"following"`
	Requested bool `json:"requested"`
}

type ChatPreview struct {
	ID          FlexID  `json:"id"`
	User        UserRef `json:"user"`
	LastMessage struct {
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
		IsOwn     bool   `json:"is_own"`
	} `json:"last_message"`
	UnreadCount int `json:"unread_count"`
}

type Message struct {
	ID       FlexID `json:"id"`
	SenderID FlexID `json:"sender_id"`
	Text     string `json:"text"`
	IsEdited bool   `json:"is_edited"`
	IsPinned bool   `json:"is_pinned"`
	ReplyTo  *struct {
		ID         FlexID `json:"id"`
		Text       string `json:"text"`
		SenderName string `json:"sender_name"`
	} `json:"reply_to,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Thread is one conversation; Pinned is derived from Messages.
type Thread struct {
	Messages []Message `json:"messages"`
	User     *UserRef  `json:"user,omitempty"`
	Pinned   []Message `json:"-"`
}

type Notification struct {
	ID        FlexID  `json:"id"`
	Type      string  `json:"type"`
	FromUser  UserRef `json:"from_user"`
	PostID    FlexID  `json:"post_id,omitempty"`
	Text      string  `json:"text,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

type FollowRequest struct {
	ID        FlexID  `json:"id"`
	FromUser  UserRef `json:"from_user"`
	CreatedAt string  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers           int `json:"total_users"`
	TotalPosts           int `json:"total_posts"`
	PendingReports       int `json:"pending_reports"`
	PendingVerifications int `json:"pending_verifications"`
	PendingAppeals       int `json:"pending_appeals"`
}

type Report struct {
	ID             FlexID `json:"id"`
	Type           string `json:"type"`
	TargetID       FlexID `json:"target_id"`
	Reason         string `json:"reason"`
	FromUsername   string `json:"from_username"`
	TargetUsername string `json:"target_username,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type Verification struct {
	ID        FlexID `json:"id"`
	Username  string `json:"username"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type Appeal struct {
	ID        FlexID `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// ProfileUpdate is the editable part of the caller's own profile.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	IsPrivate   bool   `json:"is_private"`
	Links       Links  `json:"links"`
}

type Release struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	CoverURL string `json:"cover_url"`
}
