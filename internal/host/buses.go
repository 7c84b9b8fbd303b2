package host

// Request buses.
const (
	EditorRequestBus              = "EditorRequestBus"
	EditorEntityContextRequestBus = "EditorEntityContextRequestBus"
	ToolsApplicationRequestBus    = "ToolsApplicationRequestBus"
	EditorEntityInfoRequestBus    = "EditorEntityInfoRequestBus"
	ComponentApplicationBus       = "ComponentApplicationBus"
	TransformBus                  = "TransformBus"
	RigidBodyRequestBus           = "RigidBodyRequestBus"
	EditorComponentAPIBus         = "EditorComponentAPIBus"
	AssetCatalogRequestBus        = "AssetCatalogRequestBus"
)

// Notification buses.
const (
	CollisionNotificationBus           = "CollisionNotificationBus"
	TriggerNotificationBus             = "TriggerNotificationBus"
	ForceRegionNotificationBus         = "ForceRegionNotificationBus"
	EntityBus                          = "EntityBus"
	EditorEntityContextNotificationBus = "EditorEntityContextNotificationBus"
	TickBus                            = "TickBus"
	TraceMessageBus                    = "TraceMessageBus"
)

// Notification callback names.
const (
	OnCollisionBegin   = "OnCollisionBegin"
	OnCollisionPersist = "OnCollisionPersist"
	OnCollisionEnd     = "OnCollisionEnd"

	OnTriggerEnter = "OnTriggerEnter"
	OnTriggerExit  = "OnTriggerExit"

	OnCalculateNetForce = "OnCalculateNetForce"

	OnEntityActivated     = "OnEntityActivated"
	OnEntityDeactivated   = "OnEntityDeactivated"
	OnEditorEntityCreated = "OnEditorEntityCreated"
	OnEditorEntityDeleted = "OnEditorEntityDeleted"

	OnTick = "OnTick"

	OnPreWarning = "OnPreWarning"
	OnPreError   = "OnPreError"
	OnPrintf     = "OnPrintf"
)
