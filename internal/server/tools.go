package server

// Method names served by the bridge.
const (
	MethodGetInstalledApps = "getInstalledApps"
	MethodGetApp           = "getApp"
	MethodIsAppInstalled   = "isAppInstalled"
	MethodOpenApp          = "openApp"
	MethodGetAppByApkFiles = "getAppByApkFiles"
	MethodListenAppChanges = "listenAppChanges"
	MethodCancelAppChanges = "cancelAppChanges"
)

// Method describes one bridge method in the initialize response.
type Method struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Background  bool                   `json:"background,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetMethodDefinitions returns all available methods
func GetMethodDefinitions() []Method {
	packageName := map[string]interface{}{
		"type":        "string",
		"description": "Package identifier of the application",
	}

	return []Method{
		// Queries
		{
			Name:        MethodGetInstalledApps,
			Description: "List installed applications as records, in registry order.",
			Background:  true,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"system_apps": map[string]interface{}{
						"type":        "boolean",
						"description": "Include system applications. Default false",
						"default":     false,
					},
					"include_app_icons": map[string]interface{}{
						"type":        "boolean",
						"description": "Embed each icon as a base64 PNG. Default false",
						"default":     false,
					},
					"only_apps_with_launch_intent": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep only applications that can be launched. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        MethodGetApp,
			Description: "Get the record of one installed application, or null when it is not installed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"package_name": packageName,
					"include_app_icon": map[string]interface{}{
						"type":        "boolean",
						"description": "Embed the icon as a base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"package_name"},
			},
		},
		{
			Name:        MethodIsAppInstalled,
			Description: "Check whether an application is installed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"package_name": packageName,
				},
				"required": []string{"package_name"},
			},
		},
		{
			Name:        MethodGetAppByApkFiles,
			Description: "Read package definition files that need not be installed. Unreadable files are skipped.",
			Background:  true,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Paths of the definition files",
					},
					"include_app_icon": map[string]interface{}{
						"type":        "boolean",
						"description": "Embed each icon as a base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"paths"},
			},
		},

		// Actions
		{
			Name:        MethodOpenApp,
			Description: "Launch an application through its entry point. Returns false when it has none.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"package_name": packageName,
				},
				"required": []string{"package_name"},
			},
		},

		// Change events
		{
			Name:        MethodListenAppChanges,
			Description: "Start sending onAppChanged notifications for installs, updates and removals.",
			InputSchema: map[string]interface{}{"type": "object"},
		},
		{
			Name:        MethodCancelAppChanges,
			Description: "Stop sending onAppChanged notifications.",
			InputSchema: map[string]interface{}{"type": "object"},
		},
	}
}
