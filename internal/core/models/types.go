package models

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// typeNamespace seeds name based TypeIDs so every host derives the same id
// for the same component type name.
var typeNamespace = uuid.MustParse("5f0c2a4e-8f1d-4d9b-9a53-1c6e0f2b7a10")

// assetNamespace seeds AssetID guids derived from normalized asset paths.
var assetNamespace = uuid.MustParse("0b8e6f31-2c47-4a85-b1d9-7e4f3a9c5d62")

// TypeID identifies a component type.
type TypeID uuid.UUID

// TypeIDFromName derives the TypeID registered for a component type name.
func TypeIDFromName(name string) TypeID {
	return TypeID(uuid.NewSHA1(typeNamespace, []byte(name)))
}

// IsValid reports whether the id is not the nil uuid.
func (t TypeID) IsValid() bool { return uuid.UUID(t) != uuid.Nil }

func (t TypeID) String() string { return "{" + strings.ToUpper(uuid.UUID(t).String()) + "}" }

// AssetID references a catalogued asset. The zero value is the "none" sentinel.
type AssetID struct {
	GUID  uuid.UUID
	SubID uint32
}

// IsValid reports whether the id references an asset.
func (a AssetID) IsValid() bool { return a.GUID != uuid.Nil }

func (a AssetID) String() string {
	if !a.IsValid() {
		return "{00000000-0000-0000-0000-000000000000}:0"
	}
	return "{" + strings.ToUpper(a.GUID.String()) + "}:" + hexSub(a.SubID)
}

// AssetIDFromPath derives the guid part of an AssetID from a source path.
func AssetIDFromPath(p string, subID uint32) AssetID {
	return AssetID{GUID: uuid.NewSHA1(assetNamespace, []byte(NormalizeAssetPath(p))), SubID: subID}
}

// NormalizeAssetPath forward-slash normalizes and lower-cases an asset path.
func NormalizeAssetPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(strings.ToLower(strings.TrimSpace(p)))
	return strings.TrimPrefix(p, "./")
}

func hexSub(v uint32) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	return string(buf[i:])
}
