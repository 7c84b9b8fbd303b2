package host

// Request bus methods. A name may be served by more than one bus.
const (
	// EditorRequestBus
	OpenLevelNoPrompt   = "OpenLevelNoPrompt"
	IsLevelLoaded       = "IsLevelLoaded"
	GetCurrentLevelName = "GetCurrentLevelName"
	EnterGameMode       = "EnterGameMode"
	ExitGameMode        = "ExitGameMode"
	IsInGameMode        = "IsInGameMode"

	// ToolsApplicationRequestBus
	CreateNewEntity               = "CreateNewEntity"
	DeleteEntityByID              = "DeleteEntityById"
	DeleteEntityAndAllDescendants = "DeleteEntityAndAllDescendants"
	GetSelectedEntities           = "GetSelectedEntities"
	SetSelectedEntities           = "SetSelectedEntities"

	// EditorEntityContextRequestBus
	GetRootEditorEntities = "GetRootEditorEntities"

	// EditorEntityInfoRequestBus
	GetName     = "GetName"
	SetName     = "SetName"
	GetParent   = "GetParent"
	SetParent   = "SetParent"
	GetChildren = "GetChildren"

	// ComponentApplicationBus
	FindEntitiesByName = "FindEntitiesByName"
	GetEntityName      = "GetEntityName"
	IsEntityActive     = "IsEntityActive"

	// TransformBus
	GetWorldTranslation = "GetWorldTranslation"
	SetWorldTranslation = "SetWorldTranslation"
	GetLocalTranslation = "GetLocalTranslation"
	SetLocalTranslation = "SetLocalTranslation"
	GetParentID         = "GetParentId"

	// RigidBodyRequestBus
	GetLinearVelocity    = "GetLinearVelocity"
	SetLinearVelocity    = "SetLinearVelocity"
	ApplyLinearImpulse   = "ApplyLinearImpulse"
	SetGravityEnabled    = "SetGravityEnabled"
	IsGravityEnabled     = "IsGravityEnabled"
	ForceAwake           = "ForceAwake"
	IsAwake              = "IsAwake"
	GetMass              = "GetMass"
	GetCenterOfMassWorld = "GetCenterOfMassWorld"

	// EditorComponentAPIBus
	FindComponentTypeIdsByEntityType = "FindComponentTypeIdsByEntityType"
	FindComponentTypeNames           = "FindComponentTypeNames"
	AddComponentsOfType              = "AddComponentsOfType"
	RemoveComponents                 = "RemoveComponents"
	HasComponentOfType               = "HasComponentOfType"
	GetComponentOfType               = "GetComponentOfType"
	GetComponentProperty             = "GetComponentProperty"
	SetComponentProperty             = "SetComponentProperty"
	CompareComponentProperty         = "CompareComponentProperty"
	BuildComponentPropertyTreeEditor = "BuildComponentPropertyTreeEditor"

	// AssetCatalogRequestBus
	GetAssetIDByPath = "GetAssetIdByPath"
	GetAssetPathByID = "GetAssetPathById"
)
