package universe

// Index names.
const (
	Nifty50     = "NIFTY50"
	NiftyNext50 = "NIFTYNEXT50"
	Sensex30    = "SENSEX30"
)

var nifty50 = []string{
	"RELIANCE.NS", "HDFCBANK.NS", "ICICIBANK.NS", "INFY.NS", "TCS.NS",
	"KOTAKBANK.NS", "HINDUNILVR.NS", "LT.NS", "SBIN.NS", "AXISBANK.NS",
	"BHARTIARTL.NS", "BAJFINANCE.NS", "ASIANPAINT.NS", "MARUTI.NS", "ITC.NS",
	"WIPRO.NS", "TITAN.NS", "NESTLEIND.NS", "ULTRACEMCO.NS", "TECHM.NS",
	"HCLTECH.NS", "POWERGRID.NS", "NTPC.NS", "GRASIM.NS", "SUNPHARMA.NS",
	"M&M.NS", "INDUSINDBK.NS", "ONGC.NS", "DRREDDY.NS", "TATACONSUM.NS",
	"BRITANNIA.NS", "JSWSTEEL.NS", "COALINDIA.NS", "HINDALCO.NS", "TATAMOTORS.NS",
	"EICHERMOT.NS", "ADANIPORTS.NS", "BPCL.NS", "DIVISLAB.NS", "APOLLOHOSP.NS",
	"HEROMOTOCO.NS", "SHREECEM.NS", "BAJAJ-AUTO.NS", "CIPLA.NS", "TATASTEEL.NS",
	"HDFCLIFE.NS", "SBILIFE.NS", "ADANIENT.NS", "UPL.NS", "ICICIGI.NS",
}

var niftyNext50 = []string{
	"PIDILITIND.NS", "BAJAJFINSV.NS", "AMBUJACEM.NS", "GAIL.NS", "IOC.NS",
	"DLF.NS", "SBICARD.NS", "HAVELLS.NS", "SIEMENS.NS", "INDIGO.NS",
	"CHOLAFIN.NS", "PGHH.NS", "DABUR.NS", "SRF.NS", "BOSCHLTD.NS",
	"HDFCAMC.NS", "BERGEPAINT.NS", "GODREJCP.NS", "NMDC.NS", "BANKBARODA.NS",
	"COLPAL.NS", "ICICIPRULI.NS", "TVSMOTOR.NS", "PNB.NS", "MARICO.NS",
	"LTIM.NS", "SHRIRAMFIN.NS", "VEDL.NS", "HINDZINC.NS", "HINDPETRO.NS",
	"MOTHERSON.NS", "AUROPHARMA.NS", "TORNTPHARM.NS", "BEL.NS", "LODHA.NS",
	"TRENT.NS", "ABB.NS", "HAL.NS", "ADANIPOWER.NS", "IRCTC.NS",
	"ATGL.NS", "ZEEL.NS", "NAUKRI.NS", "ZOMATO.NS", "PAYTM.NS",
}

var sensex30 = []string{
	"RELIANCE.BO", "HDFCBANK.BO", "ICICIBANK.BO", "INFY.BO", "TCS.BO",
	"KOTAKBANK.BO", "HINDUNILVR.BO", "LT.BO", "SBIN.BO", "AXISBANK.BO",
	"BHARTIARTL.BO", "BAJFINANCE.BO", "ASIANPAINT.BO", "MARUTI.BO", "ITC.BO",
	"WIPRO.BO", "TITAN.BO", "NESTLEIND.BO", "ULTRACEMCO.BO", "TECHM.BO",
	"HCLTECH.BO", "POWERGRID.BO", "NTPC.BO", "M&M.BO", "SUNPHARMA.BO",
	"BAJAJFINSV.BO", "TATASTEEL.BO", "INDUSINDBK.BO", "TATAMOTORS.BO", "JSWSTEEL.BO",
}
