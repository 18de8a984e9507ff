// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

// OperationCode identifies a PTP/MTP operation carried in a Command
// container's Code field.
type OperationCode uint16

// PTP operation codes (ISO 15740) plus the MTP (Microsoft) extension
// operations this package needs. Values are fixed by the standards and
// must not be reassigned.
const (
	OpGetDeviceInfo     OperationCode = 0x1001
	OpOpenSession       OperationCode = 0x1002
	OpCloseSession      OperationCode = 0x1003
	OpGetStorageIDs     OperationCode = 0x1004
	OpGetStorageInfo    OperationCode = 0x1005
	OpGetNumObjects     OperationCode = 0x1006
	OpGetObjectHandles  OperationCode = 0x1007
	OpGetObjectInfo     OperationCode = 0x1008
	OpGetObject         OperationCode = 0x1009
	OpGetThumb          OperationCode = 0x100A
	OpDeleteObject      OperationCode = 0x100B
	OpSendObjectInfo    OperationCode = 0x100C
	OpSendObject        OperationCode = 0x100D
	OpInitiateCapture   OperationCode = 0x100E
	OpFormatStore       OperationCode = 0x100F
	OpResetDevice       OperationCode = 0x1010
	OpSelfTest          OperationCode = 0x1011
	OpSetObjectProtect  OperationCode = 0x1012
	OpPowerDown         OperationCode = 0x1013
	OpGetDevicePropDesc OperationCode = 0x1014
	OpGetDevicePropValue OperationCode = 0x1015
	OpSetDevicePropValue OperationCode = 0x1016
	OpResetDevicePropValue OperationCode = 0x1017
	OpTerminateCapture  OperationCode = 0x1018
	OpMoveObject        OperationCode = 0x1019
	OpCopyObject        OperationCode = 0x101A
	OpGetPartialObject  OperationCode = 0x101B
	OpInitiateOpenCapture OperationCode = 0x101C

	// MTP (vendor extension) object-property operations.
	OpGetObjectPropsSupported OperationCode = 0x9801
	OpGetObjectPropDesc       OperationCode = 0x9802
	OpGetObjectPropValue      OperationCode = 0x9803
	OpSetObjectPropValue      OperationCode = 0x9804
	OpGetObjectPropList       OperationCode = 0x9805
	OpGetObjectReferences     OperationCode = 0x9810
	OpSetObjectReferences     OperationCode = 0x9811
)

var operationNames = map[OperationCode]string{
	OpGetDeviceInfo:           "GetDeviceInfo",
	OpOpenSession:             "OpenSession",
	OpCloseSession:            "CloseSession",
	OpGetStorageIDs:           "GetStorageIDs",
	OpGetStorageInfo:          "GetStorageInfo",
	OpGetNumObjects:           "GetNumObjects",
	OpGetObjectHandles:        "GetObjectHandles",
	OpGetObjectInfo:           "GetObjectInfo",
	OpGetObject:               "GetObject",
	OpGetThumb:                "GetThumb",
	OpDeleteObject:            "DeleteObject",
	OpSendObjectInfo:          "SendObjectInfo",
	OpSendObject:              "SendObject",
	OpFormatStore:             "FormatStore",
	OpResetDevice:             "ResetDevice",
	OpGetDevicePropDesc:       "GetDevicePropDesc",
	OpGetDevicePropValue:      "GetDevicePropValue",
	OpSetDevicePropValue:      "SetDevicePropValue",
	OpMoveObject:              "MoveObject",
	OpCopyObject:              "CopyObject",
	OpGetObjectPropsSupported: "GetObjectPropsSupported",
	OpGetObjectPropDesc:       "GetObjectPropDesc",
	OpGetObjectPropValue:      "GetObjectPropValue",
	OpSetObjectPropValue:      "SetObjectPropValue",
	OpGetObjectPropList:       "GetObjectPropList",
	OpGetObjectReferences:     "GetObjectReferences",
	OpSetObjectReferences:     "SetObjectReferences",
}

// String returns the human-readable operation name, or a hex fallback.
func (c OperationCode) String() string {
	if name, ok := operationNames[c]; ok {
		return name
	}
	return hexCode(uint16(c))
}

// ResponseCode identifies the outcome of a PTP/MTP transaction, carried in
// a Response container's Code field.
type ResponseCode uint16

// PTP/MTP response codes.
const (
	RespOK                            ResponseCode = 0x2001
	RespGeneralError                  ResponseCode = 0x2002
	RespSessionNotOpen                ResponseCode = 0x2003
	RespInvalidTransactionID          ResponseCode = 0x2004
	RespOperationNotSupported         ResponseCode = 0x2005
	RespParameterNotSupported         ResponseCode = 0x2006
	RespIncompleteTransfer            ResponseCode = 0x2007
	RespInvalidStorageID              ResponseCode = 0x2008
	RespInvalidObjectHandle           ResponseCode = 0x2009
	RespDevicePropNotSupported        ResponseCode = 0x200A
	RespInvalidObjectFormatCode       ResponseCode = 0x200B
	RespStoreFull                     ResponseCode = 0x200C
	RespObjectWriteProtected          ResponseCode = 0x200D
	RespStoreReadOnly                 ResponseCode = 0x200E
	RespAccessDenied                  ResponseCode = 0x200F
	RespNoThumbnailPresent            ResponseCode = 0x2010
	RespSelfTestFailed                ResponseCode = 0x2011
	RespPartialDeletion               ResponseCode = 0x2012
	RespStoreNotAvailable             ResponseCode = 0x2013
	RespSpecificationByFormatUnsupported ResponseCode = 0x2014
	RespNoValidObjectInfo             ResponseCode = 0x2015
	RespInvalidCodeFormat             ResponseCode = 0x2016
	RespUnknownVendorCode             ResponseCode = 0x2017
	RespCaptureAlreadyTerminated      ResponseCode = 0x2018
	RespDeviceBusy                    ResponseCode = 0x2019
	RespInvalidParentObject           ResponseCode = 0x201A
	RespInvalidDevicePropFormat       ResponseCode = 0x201B
	RespInvalidDevicePropValue        ResponseCode = 0x201C
	RespInvalidParameter              ResponseCode = 0x201D
	RespSessionAlreadyOpened          ResponseCode = 0x201E
	RespTransactionCancelled          ResponseCode = 0x201F
	RespSpecificationOfDestinationUnsupported ResponseCode = 0x2020
	RespInvalidObjectPropCode         ResponseCode = 0xA801
	RespInvalidObjectPropFormat       ResponseCode = 0xA802
	RespInvalidObjectPropValue        ResponseCode = 0xA803
	RespInvalidObjectReference        ResponseCode = 0xA804
	RespGroupNotSupported             ResponseCode = 0xA805
	RespInvalidDataset                ResponseCode = 0xA806
	RespSpecificationByGroupUnsupported ResponseCode = 0xA807
	RespSpecificationByDepthUnsupported ResponseCode = 0xA808
	RespObjectTooLarge                ResponseCode = 0xA809
	RespObjectPropNotSupported        ResponseCode = 0xA80A
)

var responseNames = map[ResponseCode]string{
	RespOK:                     "OK",
	RespGeneralError:           "GeneralError",
	RespSessionNotOpen:         "SessionNotOpen",
	RespInvalidTransactionID:   "InvalidTransactionID",
	RespOperationNotSupported:  "OperationNotSupported",
	RespParameterNotSupported:  "ParameterNotSupported",
	RespIncompleteTransfer:     "IncompleteTransfer",
	RespInvalidStorageID:       "InvalidStorageID",
	RespInvalidObjectHandle:    "InvalidObjectHandle",
	RespDevicePropNotSupported: "DevicePropNotSupported",
	RespStoreFull:              "StoreFull",
	RespObjectWriteProtected:   "ObjectWriteProtected",
	RespStoreReadOnly:          "StoreReadOnly",
	RespAccessDenied:           "AccessDenied",
	RespDeviceBusy:             "DeviceBusy",
	RespInvalidParentObject:    "InvalidParentObject",
	RespSessionAlreadyOpened:   "SessionAlreadyOpened",
	RespTransactionCancelled:   "TransactionCancelled",
	RespInvalidObjectPropCode:  "InvalidObjectPropCode",
	RespInvalidObjectReference: "InvalidObjectReference",
	RespObjectTooLarge:         "ObjectTooLarge",
	RespObjectPropNotSupported: "ObjectPropNotSupported",
}

// String returns the human-readable response name, or a hex fallback.
func (c ResponseCode) String() string {
	if name, ok := responseNames[c]; ok {
		return name
	}
	return hexCode(uint16(c))
}

// EventCode identifies an asynchronous notification delivered over the
// interrupt endpoint.
type EventCode uint16

// PTP/MTP event codes.
const (
	EventCancelTransaction  EventCode = 0x4001
	EventObjectAdded        EventCode = 0x4002
	EventObjectRemoved      EventCode = 0x4003
	EventStoreAdded         EventCode = 0x4004
	EventStoreRemoved       EventCode = 0x4005
	EventDevicePropChanged  EventCode = 0x4006
	EventObjectInfoChanged  EventCode = 0x4007
	EventDeviceInfoChanged  EventCode = 0x4008
	EventRequestObjectTransfer EventCode = 0x4009
	EventStoreFull          EventCode = 0x400A
	EventDeviceReset        EventCode = 0x400B
	EventStorageInfoChanged EventCode = 0x400C
	EventCapturedComplete   EventCode = 0x400D
	EventUnreportedStatus   EventCode = 0x400E
	EventCancelledTransaction EventCode = 0x4010
)

// FormatCode identifies an object's content format (PTP calls this the
// "object format code"; it doubles as a folder marker via
// FormatAssociation).
type FormatCode uint16

// Format codes relevant to MTP audio/video/playlist handling. The full
// PTP/MTP standard defines many more (images, documents, ...); only the
// subset this package's classification and playlist/album logic needs is
// reproduced here.
const (
	FormatUndefined                FormatCode = 0x3000
	FormatAssociation               FormatCode = 0x3001 // a folder
	FormatScript                   FormatCode = 0x3002
	FormatExecutable                FormatCode = 0x3003
	FormatText                      FormatCode = 0x3004
	FormatHTML                      FormatCode = 0x3005
	FormatWAV                       FormatCode = 0x3008
	FormatMP3                       FormatCode = 0x3009
	FormatAVI                       FormatCode = 0x300A
	FormatMPEG                      FormatCode = 0x300B
	FormatASF                       FormatCode = 0x300C
	FormatUndefinedAudio            FormatCode = 0xB900
	FormatWMA                       FormatCode = 0xB901
	FormatOGG                       FormatCode = 0xB902
	FormatAAC                       FormatCode = 0xB903
	FormatAudible                   FormatCode = 0xB904
	FormatFLAC                      FormatCode = 0xB906
	FormatUndefinedVideo            FormatCode = 0xB980
	FormatWMV                       FormatCode = 0xB981
	FormatMP4                       FormatCode = 0xB982
	FormatM4A                       FormatCode = 0xB983
	FormatAbstractAudioVideoPlaylist FormatCode = 0xBA05
	FormatAbstractAudioAlbum         FormatCode = 0xBA03
	FormatSamsungPlaylist           FormatCode = 0xB109
)

// IsFolder reports whether the format code marks an object as a
// container of other objects, i.e. the object may appear as a parent of
// others.
func (f FormatCode) IsFolder() bool { return f == FormatAssociation }

// knownAudioFormats is the set of object formats list_tracks()
// classifies as tracks.
var knownAudioFormats = map[FormatCode]bool{
	FormatWAV:            true,
	FormatMP3:             true,
	FormatWMA:             true,
	FormatOGG:             true,
	FormatMP4:             true,
	FormatAAC:             true,
	FormatM4A:            true,
	FormatFLAC:            true,
	FormatUndefinedAudio: true,
}

// IsKnownAudioFormat reports whether f is one of the audio formats the
// track listing operation recognizes.
func IsKnownAudioFormat(f FormatCode) bool { return knownAudioFormats[f] }

// ObjectPropCode identifies an MTP object property (title, artist, ...).
type ObjectPropCode uint16

// MTP object property codes used by the metadata get/set paths.
const (
	PropStorageID         ObjectPropCode = 0xDC01
	PropObjectFormat      ObjectPropCode = 0xDC02
	PropProtectionStatus  ObjectPropCode = 0xDC03
	PropObjectSize        ObjectPropCode = 0xDC04
	PropObjectFileName    ObjectPropCode = 0xDC07
	PropDateModified      ObjectPropCode = 0xDC09
	PropParentObject      ObjectPropCode = 0xDC0B
	PropPersistentUID     ObjectPropCode = 0xDC41
	PropName              ObjectPropCode = 0xDC44
	PropDateAdded         ObjectPropCode = 0xDC4E
	PropArtist            ObjectPropCode = 0xDC46
	PropGenre             ObjectPropCode = 0xDC8C
	PropAlbumName         ObjectPropCode = 0xDC8A
	PropTrack             ObjectPropCode = 0xDC8B
	PropOriginalReleaseDate ObjectPropCode = 0xDC8D
	PropDuration          ObjectPropCode = 0xDC89
	PropRating            ObjectPropCode = 0xDC8E
	PropUseCount           ObjectPropCode = 0xDC91
	PropSampleRate        ObjectPropCode = 0xDE93
	PropNumberOfChannels  ObjectPropCode = 0xDE94
	PropAudioBitRate      ObjectPropCode = 0xDE99
	PropAudioWAVECodec    ObjectPropCode = 0xDE98
	PropAudioBitRateType  ObjectPropCode = 0xDE9A
)

// PropValueKind is the wire datatype tag of an object or device property
// value.
type PropValueKind uint8

// Property datatype kinds. Only the subset actually produced/consumed by
// the modeled metadata fields is represented.
const (
	KindUint8 PropValueKind = iota
	KindUint16
	KindUint32
	KindUint64
	KindString
)

// datatypeCode is the PTP DataType code that accompanies a property
// descriptor and determines how its value is packed on the wire.
type datatypeCode uint16

const (
	dtUint8  datatypeCode = 0x0002
	dtUint16 datatypeCode = 0x0004
	dtUint32 datatypeCode = 0x0006
	dtUint64 datatypeCode = 0x0008
	dtString datatypeCode = 0xFFFF
)

func hexCode(c uint16) string {
	const hexDigits = "0123456789ABCDEF"
	buf := [6]byte{'0', 'x', 0, 0, 0, 0}
	for i := 0; i < 4; i++ {
		buf[5-i] = hexDigits[(c>>(4*i))&0xF]
	}
	return string(buf[:])
}
