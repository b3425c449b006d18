package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/qr-restaurant/qr"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type QRController struct {
	Generator  *qr.Generator
	TableCount int
}

func NewQRController(gen *qr.Generator, tableCount int) *QRController {
	return &QRController{Generator: gen, TableCount: tableCount}
}

func (qc *QRController) count(c *gin.Context) (int, bool) {
	raw := c.Query("count")
	if raw == "" {
		return qc.TableCount, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < qr.MinTableNumber || n > qr.MaxTableNumber {
		utils.RespondError(c, http.StatusBadRequest, qr.ErrTableNumberRange)
		return 0, false
	}
	return n, true
}

func (qc *QRController) number(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < qr.MinTableNumber || n > qr.MaxTableNumber {
		utils.RespondError(c, http.StatusBadRequest, qr.ErrTableNumberRange)
		return 0, false
	}
	return n, true
}

func (qc *QRController) fail(c *gin.Context, err error) {
	if qr.IsRangeError(err) {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	respondServiceError(c, err)
}

// ListCodes -> base64 QR codes for tables 1..count
func (qc *QRController) ListCodes(c *gin.Context) {
	n, ok := qc.count(c)
	if !ok {
		return
	}
	codes, err := qc.Generator.Codes(n)
	if err != nil {
		qc.fail(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "QR codes", codes)
}

func (qc *QRController) GetCode(c *gin.Context) {
	n, ok := qc.number(c)
	if !ok {
		return
	}
	code, err := qc.Generator.Code(n)
	if err != nil {
		qc.fail(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "QR code", code)
}

func (qc *QRController) GetPNG(c *gin.Context) {
	n, ok := qc.number(c)
	if !ok {
		return
	}
	png, err := qc.Generator.PNG(n)
	if err != nil {
		qc.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// PrintPage -> HTML sheet with every table's code
func (qc *QRController) PrintPage(c *gin.Context) {
	n, ok := qc.count(c)
	if !ok {
		return
	}
	numbers, _ := qr.Numbers(n)
	page, err := qc.Generator.PrintPage(numbers)
	if err != nil {
		qc.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (qc *QRController) PrintPDF(c *gin.Context) {
	n, ok := qc.count(c)
	if !ok {
		return
	}
	numbers, _ := qr.Numbers(n)
	doc, err := qc.Generator.PrintPDF(numbers)
	if err != nil {
		qc.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="table-qr-codes.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
