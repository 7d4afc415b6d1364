// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

// Lead bytes of the MessagePack wire format.
const (
	tagPosFixintMin byte = 0x00
	tagPosFixintMax byte = 0x7f
	tagFixmapMin    byte = 0x80
	tagFixmapMax    byte = 0x8f
	tagFixarrayMin  byte = 0x90
	tagFixarrayMax  byte = 0x9f
	tagFixstrMin    byte = 0xa0
	tagFixstrMax    byte = 0xbf
	tagNil          byte = 0xc0
	tagReserved     byte = 0xc1
	tagFalse        byte = 0xc2
	tagTrue         byte = 0xc3
	tagBin8         byte = 0xc4
	tagBin16        byte = 0xc5
	tagBin32        byte = 0xc6
	tagExt8         byte = 0xc7
	tagExt16        byte = 0xc8
	tagExt32        byte = 0xc9
	tagFloat32      byte = 0xca
	tagFloat64      byte = 0xcb
	tagUint8        byte = 0xcc
	tagUint16       byte = 0xcd
	tagUint32       byte = 0xce
	tagUint64       byte = 0xcf
	tagInt8         byte = 0xd0
	tagInt16        byte = 0xd1
	tagInt32        byte = 0xd2
	tagInt64        byte = 0xd3
	tagFixext1      byte = 0xd4
	tagFixext2      byte = 0xd5
	tagFixext4      byte = 0xd6
	tagFixext8      byte = 0xd7
	tagFixext16     byte = 0xd8
	tagStr8         byte = 0xd9
	tagStr16        byte = 0xda
	tagStr32        byte = 0xdb
	tagArray16      byte = 0xdc
	tagArray32      byte = 0xdd
	tagMap16        byte = 0xde
	tagMap32        byte = 0xdf
	tagNegFixintMin byte = 0xe0
	tagNegFixintMax byte = 0xff
)

type family uint8

const (
	famReserved family = iota
	famFixint
	famNil
	famBool
	famFloat
	famUint
	famInt
	famStr
	famBin
	famArray
	famMap
	famFixext
	famExt
)

// formatInfo describes what follows a given lead byte. For the fixed
// families (float, int, uint, fixext) size is the payload width in
// bytes; for the length-prefixed families (str8..map32) it is the
// width of the length prefix; size 0 means the length or value is
// embedded in the lead byte itself.
type formatInfo struct {
	name string
	fam  family
	size int
}

// formats maps every possible lead byte to its format, so the decoder
// never has to re-derive family and width from range comparisons, and
// error messages can name the offending format.
var formats [256]formatInfo

func init() {
	fill := func(lo, hi byte, fi formatInfo) {
		for i := int(lo); i <= int(hi); i++ {
			formats[i] = fi
		}
	}

	fill(tagPosFixintMin, tagPosFixintMax, formatInfo{"positive fixint", famFixint, 0})
	fill(tagFixmapMin, tagFixmapMax, formatInfo{"fixmap", famMap, 0})
	fill(tagFixarrayMin, tagFixarrayMax, formatInfo{"fixarray", famArray, 0})
	fill(tagFixstrMin, tagFixstrMax, formatInfo{"fixstr", famStr, 0})
	fill(tagNegFixintMin, tagNegFixintMax, formatInfo{"negative fixint", famFixint, 0})

	formats[tagNil] = formatInfo{"nil", famNil, 0}
	formats[tagReserved] = formatInfo{"reserved (0xc1)", famReserved, 0}
	formats[tagFalse] = formatInfo{"false", famBool, 0}
	formats[tagTrue] = formatInfo{"true", famBool, 0}

	formats[tagBin8] = formatInfo{"bin8", famBin, 1}
	formats[tagBin16] = formatInfo{"bin16", famBin, 2}
	formats[tagBin32] = formatInfo{"bin32", famBin, 4}

	formats[tagExt8] = formatInfo{"ext8", famExt, 1}
	formats[tagExt16] = formatInfo{"ext16", famExt, 2}
	formats[tagExt32] = formatInfo{"ext32", famExt, 4}

	formats[tagFloat32] = formatInfo{"float32", famFloat, 4}
	formats[tagFloat64] = formatInfo{"float64", famFloat, 8}

	formats[tagUint8] = formatInfo{"uint8", famUint, 1}
	formats[tagUint16] = formatInfo{"uint16", famUint, 2}
	formats[tagUint32] = formatInfo{"uint32", famUint, 4}
	formats[tagUint64] = formatInfo{"uint64", famUint, 8}

	formats[tagInt8] = formatInfo{"int8", famInt, 1}
	formats[tagInt16] = formatInfo{"int16", famInt, 2}
	formats[tagInt32] = formatInfo{"int32", famInt, 4}
	formats[tagInt64] = formatInfo{"int64", famInt, 8}

	formats[tagFixext1] = formatInfo{"fixext1", famFixext, 1}
	formats[tagFixext2] = formatInfo{"fixext2", famFixext, 2}
	formats[tagFixext4] = formatInfo{"fixext4", famFixext, 4}
	formats[tagFixext8] = formatInfo{"fixext8", famFixext, 8}
	formats[tagFixext16] = formatInfo{"fixext16", famFixext, 16}

	formats[tagStr8] = formatInfo{"str8", famStr, 1}
	formats[tagStr16] = formatInfo{"str16", famStr, 2}
	formats[tagStr32] = formatInfo{"str32", famStr, 4}

	formats[tagArray16] = formatInfo{"array16", famArray, 2}
	formats[tagArray32] = formatInfo{"array32", famArray, 4}

	formats[tagMap16] = formatInfo{"map16", famMap, 2}
	formats[tagMap32] = formatInfo{"map32", famMap, 4}
}
