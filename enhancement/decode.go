/*
DESCRIPTION
  decode.go implements C9: the per-tile enhancement decode loop, ported
  from the reference decoder's ldeDecodeEnhancement. It walks a tile's
  TUs in the scan order tuaddr.go generates, drives one CoefficientDecoder
  per residual layer plus one TemporalDecoder when temporal signalling is
  present, applies dequantization (dequant.go) and the inverse transform
  (transform.go, plus deblocking when the LOQ1/DDS/deblock-enabled gate
  holds), and emits one command per produced TU into either a CmdBufferCPU
  or a CmdBufferGPU (cmdbuffer_cpu.go / cmdbuffer_gpu.go), never both.

  The five-way "how far to the next produced TU" computation mirrors the
  original's reduced-signalling bookkeeping (clearBlockQueue,
  clearBlockRemainder) exactly, modulo the TUsRemainingInBlock
  simplification documented in tuaddr.go.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import "github.com/v-nova-go/lcevc-enhancement/huffman"

// TileSink is exactly one of CPU or GPU: DecodeEnhancementTile requires
// one non-nil pair and rejects both being set or both being nil.
type TileSink struct {
	CPU *CmdBufferCPU

	GPU        *CmdBufferGPU
	GPUBuilder *CmdBufferGPUBuilder
}

func (s TileSink) valid() bool {
	cpu := s.CPU != nil
	gpu := s.GPU != nil && s.GPUBuilder != nil
	return cpu != gpu
}

// PlaneDimensions returns (plane, loq)'s pixel dimensions, the first of
// the three dimensions_*_from_config query functions named in the host
// API: a caller sizing an output buffer needs this before any tile is
// decoded.
func PlaneDimensions(g *GlobalConfig, plane Plane, loq LOQ) (width, height int) {
	shiftX, shiftY := 0, 0
	if plane != PlaneLuma {
		shiftX, shiftY = g.Chroma.shiftX(), g.Chroma.shiftY()
	}
	width = g.Width >> uint(shiftX)
	height = g.Height >> uint(shiftY)
	if loq == LOQ1 {
		width = (width + 1) / 2
		height = (height + 1) / 2
	}
	return width, height
}

// TileDimensions returns (plane, loq, tile)'s pixel dimensions, clipped
// to the plane's actual remaining extent for an edge tile.
func TileDimensions(g *GlobalConfig, plane Plane, loq LOQ, tile int) (width, height int) {
	widthTUs, heightTUs, _, _ := tileGeometry(g, plane, loq, tile)
	tuShift := uint(g.Transform.tuShift())
	return widthTUs << tuShift, heightTUs << tuShift
}

// TileStart returns (plane, loq, tile)'s pixel origin within the plane.
func TileStart(g *GlobalConfig, plane Plane, loq LOQ, tile int) (x, y int) {
	_, _, originXTUs, originYTUs := tileGeometry(g, plane, loq, tile)
	tuShift := uint(g.Transform.tuShift())
	return originXTUs << tuShift, originYTUs << tuShift
}

// tileGeometry computes a tile's TU-space dimensions and origin for
// (plane, loq, tile), deriving tile pixel bounds from GlobalConfig's
// per-plane tile dimensions (TileDim==TileNone treats the whole plane as
// one tile) and halving them at LOQ1, then converting to TU units via
// the transform's tuShift. Edge tiles (the last column/row of a tile
// grid) are clipped to the plane's actual remaining extent.
func tileGeometry(g *GlobalConfig, plane Plane, loq LOQ, tile int) (widthTUs, heightTUs, originXTUs, originYTUs int) {
	shiftX, shiftY := 0, 0
	if plane != PlaneLuma {
		shiftX, shiftY = g.Chroma.shiftX(), g.Chroma.shiftY()
	}
	planeW := g.Width >> uint(shiftX)
	planeH := g.Height >> uint(shiftY)
	if loq == LOQ1 {
		planeW = (planeW + 1) / 2
		planeH = (planeH + 1) / 2
	}

	tileW, tileH := planeW, planeH
	if g.TileDim != TileNone {
		tileW, tileH = g.PlaneTileWidth[plane], g.PlaneTileHeight[plane]
		if loq == LOQ1 {
			tileW = (tileW + 1) / 2
			tileH = (tileH + 1) / 2
		}
	}
	if tileW <= 0 {
		tileW = planeW
	}
	if tileH <= 0 {
		tileH = planeH
	}

	tilesPerRow := (planeW + tileW - 1) / tileW
	if tilesPerRow <= 0 {
		tilesPerRow = 1
	}
	tileRow := tile / tilesPerRow
	tileCol := tile % tilesPerRow

	originX := tileCol * tileW
	originY := tileRow * tileH
	actualW := tileW
	if originX+actualW > planeW {
		actualW = planeW - originX
	}
	actualH := tileH
	if originY+actualH > planeH {
		actualH = planeH - originY
	}

	tuShift := uint(g.Transform.tuShift())
	return actualW >> tuShift, actualH >> tuShift, originX >> tuShift, originY >> tuShift
}

// TileTUDimensions returns the TU-space width and height of (plane, loq,
// tile), letting a host size a CmdBufferGPU (or a worker split) before
// calling DecodeEnhancementTile.
func TileTUDimensions(g *GlobalConfig, plane Plane, loq LOQ, tile int) (widthTUs, heightTUs int) {
	widthTUs, heightTUs, _, _ = tileGeometry(g, plane, loq, tile)
	return widthTUs, heightTUs
}

// buildResidualDecoders constructs one CoefficientDecoder per residual
// layer for (plane, loq, tile).
func buildResidualDecoders(g *GlobalConfig, f *FrameConfig, plane Plane, loq LOQ, tile, numLayers int, version huffman.StreamVersion) ([]*CoefficientDecoder, error) {
	decoders := make([]*CoefficientDecoder, numLayers)
	for layer := 0; layer < numLayers; layer++ {
		chunk, ok := f.ChunkAt(plane, loq, tile, layer, numLayers)
		if !ok {
			decoders[layer] = &CoefficientDecoder{}
			continue
		}
		dec, err := NewCoefficientDecoderFromChunk(chunk, version)
		if err != nil {
			return nil, err
		}
		decoders[layer] = dec
	}
	return decoders, nil
}

// entropyDecodeAllLayers advances every layer decoder by one TU,
// applying each layer's own pending-zero-run countdown before touching
// its decoder, per decode.c's entropyDecodeAllLayers. zeros holds the
// remaining zero-fill count per layer across calls; coeffs receives this
// TU's decoded (or zero-filled) value per layer. It returns a bitmask of
// which layers produced a non-zero coefficient this TU and the minimum
// zero-run remaining across all layers after this TU (used to decide how
// many further TUs can be skipped before any layer needs another decode
// call).
func entropyDecodeAllLayers(decoders []*CoefficientDecoder, zeros []int32, coeffs []int16, tuTotal int) (nonZeroMask uint32, minZeroCount int32, err error) {
	minZeroCount = int32(tuTotal)
	for layer := range decoders {
		switch {
		case zeros[layer] > 0:
			zeros[layer]--
			coeffs[layer] = 0
		default:
			value, run, hasData, derr := decoders[layer].Decode()
			if derr != nil {
				return 0, 0, derr
			}
			if !hasData {
				zeros[layer] = int32(tuTotal) - 1
				coeffs[layer] = 0
			} else {
				coeffs[layer] = value
				zeros[layer] = int32(run)
				if zeros[layer] < 0 {
					return 0, 0, newError(ErrNegativeTemporalRun, nil, "coefficient zero-run went negative")
				}
				if value != 0 {
					nonZeroMask |= 1 << uint(layer)
				}
			}
		}
		if zeros[layer] < minZeroCount {
			minZeroCount = zeros[layer]
		}
	}
	return nonZeroMask, minZeroCount, nil
}

// DecodeEnhancementTile decodes one (plane, loq, tile)'s residual TUs and
// appends commands to exactly one of sink.CPU or (sink.GPU,
// sink.GPUBuilder): a clear for each block start in a reduced-signalling
// clear burst, and a residual command for each TU that has non-zero
// coefficients or passes the Intra / non-temporal gate below. TUs
// skipped by a zero run get no command.
func DecodeEnhancementTile(g *GlobalConfig, f *FrameConfig, plane Plane, loq LOQ, tile int, sink TileSink) error {
	if loq >= numLOQ || plane >= maxPlanes || int(plane) >= g.Chroma.numPlanes() {
		return newErrorf(ErrInvalidArgument, nil, "invalid (plane %d, loq %d)", plane, loq)
	}
	if !sink.valid() {
		return newError(ErrInvalidArgument, nil, "TileSink requires exactly one of CPU or GPU+GPUBuilder")
	}
	if !f.LOQEnabled[loq] {
		return nil
	}

	numLayers := g.Transform.NumLayers()
	widthTUs, heightTUs, _, _ := tileGeometry(g, plane, loq, tile)
	if widthTUs <= 0 || heightTUs <= 0 {
		return nil
	}
	tuTotal := widthTUs * heightTUs

	version := huffman.StreamVersion(0)
	if g.StreamVersion > 0 {
		version = huffman.VersionAlignWithSpec
	}

	decoders, err := buildResidualDecoders(g, f, plane, loq, tile, numLayers, version)
	if err != nil {
		return err
	}

	var temporal *TemporalDecoder
	tileHasTemporalDecode := loq == LOQ0 && g.TemporalEnabled && f.TemporalSignallingPresent
	if tileHasTemporalDecode {
		chunk, ok := f.TemporalChunkAt(plane, tile)
		if !ok {
			tileHasTemporalDecode = false
		} else {
			temporal, err = NewTemporalDecoderFromChunk(&chunk, version)
			if err != nil {
				return err
			}
		}
	}

	blockMajor := g.TileDim != TileNone || tileHasTemporalDecode
	walker := NewTuWalker(widthTUs, heightTUs, g.Transform, blockMajor)
	tuRasterOrder := !blockMajor

	dequant := DeriveDequantTable(g, f, plane, loq)
	applyDeblock := loq == LOQ1 && g.Transform == TransformDDS && f.DeblockEnabled

	ddsTransform := InverseTransformDDS
	if g.Transform == TransformDDS {
		scaling := Scaling2D
		if loq == LOQ0 {
			scaling = g.Scaling[LOQ0]
		}
		ddsTransform = SelectDDSTransform(scaling)
	}

	zeros := make([]int32, numLayers)
	coeffs := make([]int16, numLayers)
	residuals := make([]int32, numLayers)

	tuIndex := 0
	lastTuIndex := 0
	temporalSignal := TemporalInter
	clearBlockQueue := 0
	clearBlockRemainder := false
	temporalRun := 0

	for tuIndex < tuTotal {
		nonZeroMask, minZeroCount, derr := entropyDecodeAllLayers(decoders, zeros, coeffs, tuTotal)
		if derr != nil {
			return derr
		}

		blockStart := walker.IsBlockStart(tuIndex)

		// Refill the temporal run whenever it runs dry, independent of
		// block alignment; only the switch into reduced-signalling
		// clear-block mode waits for a block boundary.
		if clearBlockQueue == 0 && tileHasTemporalDecode && g.TemporalEnabled {
			if temporalRun <= 0 {
				run, signal, hasData, terr := temporal.NextRun()
				if terr != nil {
					return terr
				}
				clearBlockRemainder = false
				if hasData {
					temporalSignal = signal
					temporalRun = run
				} else {
					temporalRun = tuTotal
				}
				if temporalRun <= 0 {
					return newErrorf(ErrNegativeTemporalRun, nil, "invalid temporal run value %d", temporalRun)
				}
			}
			// The run is inclusive of the TU just decoded; everything
			// downstream wants the count remaining after it.
			temporalRun--

			if blockStart && temporalSignal == TemporalIntra && g.TemporalReducedSignalling {
				clearBlockQueue = temporalRun + 1
				temporalRun = 0
				for block := clearBlockQueue; block > 0; block-- {
					temporalRun += walker.BlockTUCount(tuIndex + temporalRun)
				}
			}
		}

		blockTUCount := walker.BlockTUCount(tuIndex)
		clearedBlock := false

		if blockStart && clearBlockQueue > 0 {
			x, y := walker.CoordsAt(tuIndex)
			blockAlignedIndex := y*widthTUs + x
			if sink.CPU != nil {
				if err := sink.CPU.Append(CmdClear, nil, blockAlignedIndex-lastTuIndex); err != nil {
					return err
				}
			} else {
				if err := sink.GPU.Append(sink.GPUBuilder, GPUOpClearAndSet, nil, blockAlignedIndex, false); err != nil {
					return err
				}
			}
			lastTuIndex = blockAlignedIndex

			clearedBlock = true
			clearBlockQueue--
			if clearBlockQueue == 0 {
				clearBlockRemainder = true
			}
		}

		// Only bother emitting a command when it would have an
		// observable effect: real coefficients, or an Intra TU that
		// wasn't just handled by the clear above.
		if nonZeroMask != 0 || (!clearedBlock && (!g.TemporalEnabled || temporalSignal == TemporalIntra)) {
			if nonZeroMask != 0 {
				params := dequant[temporalSignal]
				for layer := 0; layer < numLayers; layer++ {
					if coeffs[layer] == 0 {
						residuals[layer] = 0
						continue
					}
					residuals[layer] = params.Dequantize(coeffs[layer], layer)
				}

				switch numLayers {
				case 4:
					var in [4]int32
					copy(in[:], residuals)
					out := InverseTransformDD(in)
					copy(residuals, out[:])
				case 16:
					var in [16]int32
					copy(in[:], residuals)
					out := ddsTransform(in)
					copy(residuals, out[:])
					if applyDeblock {
						ApplyDeblocking(residuals, g)
					}
				}
			} else {
				for layer := range residuals {
					residuals[layer] = 0
				}
			}

			x, y := walker.CoordsAt(tuIndex)
			currentIndex := y*widthTUs + x

			if sink.CPU != nil {
				kind := CmdAdd
				switch {
				case nonZeroMask == 0 && temporalSignal == TemporalIntra:
					kind = CmdSetZero
				case loq == LOQ0 && (temporalSignal == TemporalIntra || clearBlockQueue > 0 || clearBlockRemainder):
					kind = CmdSet
				}
				if err := sink.CPU.Append(kind, residuals, currentIndex-lastTuIndex); err != nil {
					return err
				}
				lastTuIndex = currentIndex
			} else {
				op := GPUOpAdd
				switch {
				case nonZeroMask == 0 && temporalSignal == TemporalIntra:
					op = GPUOpSetZero
				case loq == LOQ0 && temporalSignal == TemporalIntra:
					op = GPUOpSet
				}
				if err := sink.GPU.Append(sink.GPUBuilder, op, residuals, currentIndex, tuRasterOrder); err != nil {
					return err
				}
			}
		}

		if tileHasTemporalDecode {
			switch {
			case clearedBlock:
				if blockRemaining := int32(blockTUCount - 1); minZeroCount > blockRemaining {
					minZeroCount = blockRemaining
				}
				temporalRun -= int(minZeroCount) + 1
			case clearBlockQueue > 0:
				if nextBlockStart := int32(walker.TUsRemainingInBlock(tuIndex)); nextBlockStart < minZeroCount {
					minZeroCount = nextBlockStart
				}
				temporalRun -= int(minZeroCount) + 1
			case temporalSignal == TemporalInter || (clearBlockRemainder && int(minZeroCount) > temporalRun):
				if int(minZeroCount) > temporalRun {
					minZeroCount = int32(temporalRun)
				}
				temporalRun -= int(minZeroCount)
			case !clearBlockRemainder:
				minZeroCount = 0
			default:
				temporalRun -= int(minZeroCount)
			}
		}

		tuIndex += int(minZeroCount) + 1
		if minZeroCount > 0 {
			for layer := range zeros {
				zeros[layer] -= minZeroCount
			}
		}
	}

	if sink.CPU != nil && sink.CPU.SplitCount > 1 {
		sink.CPU.Split(sink.CPU.SplitCount)
	}
	if sink.GPU != nil {
		sink.GPU.Build(sink.GPUBuilder, tuRasterOrder)
	}

	return nil
}
