package models

// Identity представляє користувача Discord після успішного OAuth обміну
type Identity struct {
	ID       string `json:"uid"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// DiscordUser - відповідь Discord на GET /users/@me
type DiscordUser struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	GlobalName *string `json:"global_name"`
	Avatar     *string `json:"avatar"`
}

// DepartmentResource описує ресурси підрозділу, які бачить користувач на сторінці CAD
type DepartmentResource struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	MelonLink string `json:"melon_link,omitempty"`
	MelonCode string `json:"melon_code,omitempty"`
	Discord   string `json:"discord,omitempty"`
}

// ResourcesResponse - відповідь GET /resources
type ResourcesResponse struct {
	Departments []DepartmentResource `json:"departments"`
}
